package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	gosync "sync"
	"time"

	"github.com/habitgrid/habitgrid/internal/schema"
	"github.com/habitgrid/habitgrid/internal/store"
)

// EndpointPrefix is the provider prefix a configured endpoint must carry.
// The wire protocol (a success envelope on GET, a text/plain POST body) is
// the Apps Script web-app convention, so that is the provider we pin.
const EndpointPrefix = "https://script.google.com/macros/"

// DefaultDebounce is how long a burst of mutations settles before the
// trailing push fires.
const DefaultDebounce = 2 * time.Second

var (
	// ErrInvalidEndpoint is returned by Configure for a non-empty endpoint
	// that doesn't match EndpointPrefix. The stored endpoint is unchanged.
	ErrInvalidEndpoint = errors.New("endpoint must start with " + EndpointPrefix)

	// ErrUnavailable is returned when a pull or push is dropped because no
	// endpoint is configured or another request is already in flight.
	ErrUnavailable = errors.New("sync unavailable")
)

// pullResponse is the GET envelope.
type pullResponse struct {
	Success  bool             `json:"success"`
	Routines []schema.Routine `json:"routines,omitempty"`
	Records  schema.Ledger    `json:"records,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// pushRequest is the POST body: always the whole collections.
type pushRequest struct {
	Routines []schema.Routine `json:"routines"`
	Records  schema.Ledger    `json:"records"`
}

// pushResponse is the POST envelope.
type pushResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config holds coordinator configuration.
type Config struct {
	// Client is the HTTP client used for pull/push requests.
	Client *http.Client

	// Debounce is the settle delay for SchedulePush.
	Debounce time.Duration

	// Logger for sync activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Client:   &http.Client{Timeout: 15 * time.Second},
		Debounce: DefaultDebounce,
		Logger:   log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Coordinator synchronizes the store with the configured remote endpoint.
type Coordinator struct {
	store    *store.Store
	client   *http.Client
	debounce time.Duration
	logger   *log.Logger

	mu        gosync.Mutex
	busy      bool
	status    Status
	timer     *time.Timer
	observers []func(Status)
}

// New creates a coordinator for the given store.
// The initial status is Disconnected or Idle depending on whether the store
// already holds an endpoint.
func New(st *store.Store, config *Config) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Client == nil {
		config.Client = DefaultConfig().Client
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}

	c := &Coordinator{
		store:    st,
		client:   config.Client,
		debounce: config.Debounce,
		logger:   config.Logger,
		status:   StatusDisconnected,
	}
	if st.Endpoint() != "" {
		c.status = StatusIdle
	}
	return c
}

// Status returns the current sync status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// OnStatus registers an observer called after every status transition.
func (c *Coordinator) OnStatus(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Configure validates and stores an endpoint.
//
// An empty candidate clears the configuration and returns the coordinator to
// Disconnected. A non-empty candidate must match EndpointPrefix; otherwise
// ErrInvalidEndpoint is returned and the stored endpoint is left unchanged.
func (c *Coordinator) Configure(raw string) error {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		c.store.SetEndpointRaw("")
		c.setStatus(StatusDisconnected)
		c.logger.Println("Endpoint cleared")
		return nil
	}

	if !strings.HasPrefix(raw, EndpointPrefix) {
		return ErrInvalidEndpoint
	}

	c.store.SetEndpointRaw(raw)
	c.setStatus(StatusIdle)
	c.logger.Println("Endpoint configured")
	return nil
}

// Pull fetches the remote state and merges it into the local store.
//
// Dropped silently (ErrUnavailable) when unconfigured or already in flight.
// On any transport failure, malformed response, or remote-reported error the
// status becomes Error and local state is left untouched.
func (c *Coordinator) Pull(ctx context.Context) error {
	endpoint, ok := c.begin()
	if !ok {
		return ErrUnavailable
	}

	remote, err := c.fetch(ctx, endpoint)
	if err != nil {
		c.logger.Printf("Pull failed: %v", err)
		c.finish(StatusError)
		return err
	}

	routines, ledger := merge(c.store.Routines(), c.store.LedgerCopy(), remote)
	c.store.ReplaceState(routines, ledger)

	c.logger.Printf("Pull complete: %d routines, %d ledger days", len(routines), len(ledger))
	c.finish(StatusSynced)
	return nil
}

// Push uploads the full local state to the remote endpoint.
//
// Dropped silently (ErrUnavailable) under the same guard as Pull. Failures
// set the Error status but never roll anything back: by the time a push
// runs, the mutation that triggered it is already durable locally.
func (c *Coordinator) Push(ctx context.Context) error {
	endpoint, ok := c.begin()
	if !ok {
		return ErrUnavailable
	}

	err := c.send(ctx, endpoint, pushRequest{
		Routines: c.store.Routines(),
		Records:  c.store.LedgerCopy(),
	})
	if err != nil {
		c.logger.Printf("Push failed: %v", err)
		c.finish(StatusError)
		return err
	}

	c.logger.Println("Push complete")
	c.finish(StatusSynced)
	return nil
}

// SchedulePush arms (or re-arms) the debounced push.
//
// Each call cancels the pending timer and starts a fresh one, so a burst of
// mutations results in exactly one trailing push after the settle delay.
// Scheduling while unconfigured is a no-op.
func (c *Coordinator) SchedulePush() {
	if c.store.Endpoint() == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.Push(context.Background()); err != nil && !errors.Is(err, ErrUnavailable) {
			c.logger.Printf("Debounced push failed: %v", err)
		}
	})
}

// Stop cancels any pending debounced push. It does not interrupt a request
// already in flight.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// begin takes the in-flight guard. It returns the endpoint and true when the
// caller may proceed; a false return means the request was dropped.
func (c *Coordinator) begin() (string, bool) {
	endpoint := c.store.Endpoint()
	if endpoint == "" {
		return "", false
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", false
	}
	c.busy = true
	c.mu.Unlock()

	c.setStatus(StatusSyncing)
	return endpoint, true
}

// finish releases the in-flight guard and records the outcome.
func (c *Coordinator) finish(status Status) {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()

	c.setStatus(status)
}

// setStatus records a transition and notifies observers outside the lock.
func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	observers := make([]func(Status), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

// fetch performs the GET and validates the envelope.
func (c *Coordinator) fetch(ctx context.Context, endpoint string) (*pullResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pull returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pull response: %w", err)
	}

	var remote pullResponse
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, fmt.Errorf("malformed pull response: %w", err)
	}
	if !remote.Success {
		if remote.Error != "" {
			return nil, fmt.Errorf("remote error: %s", remote.Error)
		}
		return nil, fmt.Errorf("remote reported failure")
	}

	return &remote, nil
}

// send performs the POST and validates the envelope.
//
// The body goes out as text/plain: the provider treats other content types
// as cross-origin preflights and rejects them.
func (c *Coordinator) send(ctx context.Context, endpoint string, payload pushRequest) error {
	if payload.Routines == nil {
		payload.Routines = []schema.Routine{}
	}
	if payload.Records == nil {
		payload.Records = schema.Ledger{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read push response: %w", err)
	}

	var result pushResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("malformed push response: %w", err)
	}
	if !result.Success {
		if result.Error != "" {
			return fmt.Errorf("remote error: %s", result.Error)
		}
		return fmt.Errorf("remote reported failure")
	}

	return nil
}

// merge applies the pull merge policy (see the package documentation).
func merge(localRoutines []schema.Routine, localLedger schema.Ledger, remote *pullResponse) ([]schema.Routine, schema.Ledger) {
	routines := localRoutines
	if len(remote.Routines) > 0 {
		routines = remote.Routines
	}

	merged := localLedger.Clone()
	for key, rec := range remote.Records {
		merged[key] = rec.Clone()
	}

	return routines, merged
}
