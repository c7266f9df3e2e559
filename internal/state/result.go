package state

import (
	"fmt"
)

// Status is the tri-state outcome of a state run. It serializes to the JSON
// values true, false and null so results keep the shape operators and
// downstream tooling already parse.
type Status int8

const (
	// StatusFailed means the state could not be read or applied.
	StatusFailed Status = iota
	// StatusOK means the resource matches the declared state.
	StatusOK
	// StatusPending is the dry-run outcome: a change is needed but was not
	// applied.
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPending:
		return "pending"
	default:
		return "failed"
	}
}

// MarshalJSON renders the status as true, false or null.
func (s Status) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusOK:
		return []byte("true"), nil
	case StatusPending:
		return []byte("null"), nil
	default:
		return []byte("false"), nil
	}
}

// UnmarshalJSON accepts the true/false/null encoding produced by MarshalJSON.
func (s *Status) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*s = StatusOK
	case "false":
		*s = StatusFailed
	case "null":
		*s = StatusPending
	default:
		return fmt.Errorf("invalid status %q", string(data))
	}
	return nil
}

// Change records a single attribute transition.
type Change struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Result is the contract every state function returns: the resource name,
// the tri-state outcome, a human-readable comment and the applied (or
// planned) changes keyed by attribute.
type Result struct {
	Name    string            `json:"name"`
	Status  Status            `json:"result"`
	Changed bool              `json:"changed"`
	Comment string            `json:"comment"`
	Changes map[string]Change `json:"changes,omitempty"`
}

// Failed builds a failure result.
func Failed(name, comment string) Result {
	return Result{Name: name, Status: StatusFailed, Comment: comment}
}

// Failf builds a failure result with a formatted comment.
func Failf(name, format string, args ...any) Result {
	return Failed(name, fmt.Sprintf(format, args...))
}

// Unchanged reports a resource that already matches its declared state.
func Unchanged(name, comment string) Result {
	return Result{Name: name, Status: StatusOK, Comment: comment}
}

// Pending reports the dry-run outcome with the changes that would be made.
func Pending(name, comment string, changes map[string]Change) Result {
	return Result{Name: name, Status: StatusPending, Comment: comment, Changes: changes}
}

// Applied reports a successfully applied change set.
func Applied(name, comment string, changes map[string]Change) Result {
	return Result{Name: name, Status: StatusOK, Changed: true, Comment: comment, Changes: changes}
}
