package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Routine is a named recurring task the user tracks daily.
//
// Identity is ID: generated once at creation, immutable, never reused.
// Name is the only mutable field. The position of a routine inside the
// routines blob is meaningful (display order).
type Routine struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRoutine creates a routine with a fresh unique id and the current time.
// The caller is responsible for trimming and validating the name first.
func NewRoutine(name string) Routine {
	return Routine{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// Validate checks that the routine has valid field values.
func (r *Routine) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
