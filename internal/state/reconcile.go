package state

import (
	"context"
	"fmt"
)

// Op describes one read-compare-apply cycle for a single declared value.
// Read observes the live value and Apply pushes the declared one. Reconcile
// skips Apply when the observed value already matches and never calls it in
// dry-run mode.
type Op[T comparable] struct {
	// Name identifies the managed resource in the result.
	Name string
	// Key names the attribute in the change map. Defaults to "value".
	Key string
	// Declared is the desired value.
	Declared T
	Read     func(context.Context) (T, error)
	Apply    func(context.Context, T) error
	// Render formats values for comments and change maps. fmt.Sprint when
	// nil.
	Render func(T) string
	// Messages overrides the default comments per outcome.
	Messages Messages
}

// Messages customizes result comments. Empty fields keep the defaults. The
// Failed message is used as a prefix with the error appended.
type Messages struct {
	InSync  string
	Pending string
	Applied string
	Failed  string
}

// Reconcile runs op once and reports the outcome. After a successful apply
// the value is read back, so the OK result reflects the state the resource
// actually reached rather than the state that was requested.
func Reconcile[T comparable](ctx context.Context, op Op[T], dryRun bool) Result {
	key := op.Key
	if key == "" {
		key = "value"
	}
	render := op.Render
	if render == nil {
		render = func(v T) string { return fmt.Sprint(v) }
	}

	current, err := op.Read(ctx)
	if err != nil {
		return Failf(op.Name, "failed to read current state: %v", err)
	}
	if current == op.Declared {
		return Unchanged(op.Name, orDefault(op.Messages.InSync, fmt.Sprintf("%s is already in the desired state", op.Name)))
	}

	changes := map[string]Change{key: {Old: render(current), New: render(op.Declared)}}
	if dryRun {
		return Pending(op.Name, orDefault(op.Messages.Pending, fmt.Sprintf("%s would be changed", op.Name)), changes)
	}

	if err := op.Apply(ctx, op.Declared); err != nil {
		return Failed(op.Name, failComment(op.Messages.Failed, op.Name, err))
	}
	after, err := op.Read(ctx)
	if err != nil {
		return Failf(op.Name, "failed to verify state after apply: %v", err)
	}
	if after != op.Declared {
		return Failed(op.Name, failComment(op.Messages.Failed, op.Name,
			fmt.Errorf("value is %s after apply, wanted %s", render(after), render(op.Declared))))
	}
	changes[key] = Change{Old: render(current), New: render(after)}
	return Applied(op.Name, orDefault(op.Messages.Applied, fmt.Sprintf("%s has been changed", op.Name)), changes)
}

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

func failComment(msg, name string, err error) string {
	if msg == "" {
		msg = fmt.Sprintf("failed to change %s", name)
	}
	return fmt.Sprintf("%s: %v", msg, err)
}
