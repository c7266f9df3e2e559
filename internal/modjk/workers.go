package modjk

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Worker activation values for the update command.
const (
	activationActive   = "a"
	activationDisabled = "d"
	activationStopped  = "s"
)

// WorkerState is the runtime status of one balancer member.
type WorkerState struct {
	Activation string `json:"activation"`
	State      string `json:"state"`
}

// Version reports the mod_jk version, without the product prefix.
func (c *Client) Version(ctx context.Context) (string, error) {
	props, err := c.do(ctx, url.Values{"cmd": {"version"}})
	if err != nil {
		return "", err
	}
	raw, ok := props.get("worker.jk_version")
	if !ok {
		return "", fmt.Errorf("modjk: version missing from status response")
	}
	parts := strings.Split(raw, "/")
	return parts[len(parts)-1], nil
}

// Running returns the live configuration of the balancer.
func (c *Client) Running(ctx context.Context) (Properties, error) {
	return c.do(ctx, url.Values{"cmd": {"list"}})
}

// DumpConfig returns the configuration as loaded from disk.
func (c *Client) DumpConfig(ctx context.Context) (Properties, error) {
	return c.do(ctx, url.Values{"cmd": {"dump"}})
}

// ConfiguredMembers lists the member workers of a load balancer as
// configured on disk. An unknown balancer yields an empty list.
func (c *Client) ConfiguredMembers(ctx context.Context, balancer string) ([]string, error) {
	config, err := c.DumpConfig(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := config.get("worker." + balancer + ".balance_workers")
	if !ok {
		return []string{}, nil
	}
	return splitMembers(raw), nil
}

// Workers returns every balancer member with its activation and state.
func (c *Client) Workers(ctx context.Context) (map[string]WorkerState, error) {
	config, err := c.Running(ctx)
	if err != nil {
		return nil, err
	}
	list, _ := config.get("worker.list")

	seen := map[string]bool{}
	var members []string
	for _, balancer := range strings.Split(list, ",") {
		raw, ok := config.get("worker." + balancer + ".balance_workers")
		if !ok {
			continue
		}
		for _, member := range splitMembers(raw) {
			if !seen[member] {
				seen[member] = true
				members = append(members, member)
			}
		}
	}

	out := make(map[string]WorkerState, len(members))
	for _, member := range members {
		st, err := workerState(config, member)
		if err != nil {
			return nil, err
		}
		out[member] = st
	}
	return out, nil
}

// WorkerStatus returns the state of one worker from the running
// configuration.
func (c *Client) WorkerStatus(ctx context.Context, worker string) (WorkerState, error) {
	config, err := c.Running(ctx)
	if err != nil {
		return WorkerState{}, err
	}
	return workerState(config, worker)
}

// RecoverAll activates and recovers every member of a balancer that is not
// active and in OK state, and reports the resulting member states. An
// unknown balancer yields an empty map.
func (c *Client) RecoverAll(ctx context.Context, balancer string) (map[string]WorkerState, error) {
	config, err := c.Running(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := config.get("worker." + balancer + ".balance_workers")
	if !ok {
		return map[string]WorkerState{}, nil
	}

	out := map[string]WorkerState{}
	for _, worker := range splitMembers(raw) {
		current, err := c.WorkerStatus(ctx, worker)
		if err != nil {
			return nil, err
		}
		if current.Activation != "ACT" {
			if err := c.ActivateWorker(ctx, worker, balancer); err != nil {
				return nil, err
			}
		}
		if !strings.HasPrefix(current.State, "OK") {
			if _, err := c.RecoverWorker(ctx, worker, balancer); err != nil {
				return nil, err
			}
		}
		final, err := c.WorkerStatus(ctx, worker)
		if err != nil {
			return nil, err
		}
		out[worker] = final
	}
	return out, nil
}

// ResetStats clears the runtime statistics of a load balancer.
func (c *Client) ResetStats(ctx context.Context, balancer string) error {
	return c.command(ctx, url.Values{"cmd": {"reset"}, "w": {balancer}})
}

// EditBalancer applies update-action settings to a load balancer.
func (c *Client) EditBalancer(ctx context.Context, balancer string, settings map[string]string) error {
	params := url.Values{}
	for key, value := range settings {
		params.Set(key, value)
	}
	params.Set("cmd", "update")
	params.Set("w", balancer)
	return c.command(ctx, params)
}

// EditWorker applies update-action settings to one balancer member.
func (c *Client) EditWorker(ctx context.Context, worker, balancer string, settings map[string]string) error {
	params := url.Values{}
	for key, value := range settings {
		params.Set(key, value)
	}
	params.Set("cmd", "update")
	params.Set("w", balancer)
	params.Set("sw", worker)
	return c.command(ctx, params)
}

// RecoverWorker marks a worker for recovery and returns the raw response
// properties. The status worker reports an error state when the worker is
// already OK.
func (c *Client) RecoverWorker(ctx context.Context, worker, balancer string) (Properties, error) {
	return c.do(ctx, url.Values{"cmd": {"recover"}, "w": {balancer}, "sw": {worker}})
}

// ActivateWorker sets a worker to the active state.
func (c *Client) ActivateWorker(ctx context.Context, worker, balancer string) error {
	return c.workerCtl(ctx, worker, balancer, activationActive)
}

// DisableWorker sets a worker to the disabled state.
func (c *Client) DisableWorker(ctx context.Context, worker, balancer string) error {
	return c.workerCtl(ctx, worker, balancer, activationDisabled)
}

// StopWorker sets a worker to the stopped state.
func (c *Client) StopWorker(ctx context.Context, worker, balancer string) error {
	return c.workerCtl(ctx, worker, balancer, activationStopped)
}

// BulkStop stops each listed worker and reports per-worker success. Errors
// are folded into the report so one bad member does not abort the batch.
func (c *Client) BulkStop(ctx context.Context, workers []string, balancer string) map[string]bool {
	return c.bulk(ctx, workers, balancer, c.StopWorker)
}

// BulkActivate activates each listed worker and reports per-worker success.
func (c *Client) BulkActivate(ctx context.Context, workers []string, balancer string) map[string]bool {
	return c.bulk(ctx, workers, balancer, c.ActivateWorker)
}

// BulkDisable disables each listed worker and reports per-worker success.
func (c *Client) BulkDisable(ctx context.Context, workers []string, balancer string) map[string]bool {
	return c.bulk(ctx, workers, balancer, c.DisableWorker)
}

// BulkRecover recovers each listed worker and reports per-worker success.
func (c *Client) BulkRecover(ctx context.Context, workers []string, balancer string) map[string]bool {
	return c.bulk(ctx, workers, balancer, func(ctx context.Context, worker, balancer string) error {
		_, err := c.RecoverWorker(ctx, worker, balancer)
		return err
	})
}

func (c *Client) bulk(ctx context.Context, workers []string, balancer string, op func(context.Context, string, string) error) map[string]bool {
	out := make(map[string]bool, len(workers))
	for _, worker := range workers {
		out[worker] = op(ctx, worker, balancer) == nil
	}
	return out
}

func (c *Client) workerCtl(ctx context.Context, worker, balancer, activation string) error {
	return c.command(ctx, url.Values{
		"cmd": {"update"},
		"w":   {balancer},
		"sw":  {worker},
		"vwa": {activation},
	})
}

func workerState(config Properties, worker string) (WorkerState, error) {
	activation, okA := config.get("worker." + worker + ".activation")
	state, okS := config.get("worker." + worker + ".state")
	if !okA || !okS {
		return WorkerState{}, fmt.Errorf("%w: %s", ErrWorkerNotFound, worker)
	}
	return WorkerState{Activation: activation, State: state}, nil
}

// SplitWorkers turns a comma-separated worker list into its members. Slices
// pass through unchanged; strings are split the way the CLI accepts them.
func SplitWorkers(raw string) []string {
	return splitMembers(raw)
}

func splitMembers(raw string) []string {
	var members []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			members = append(members, part)
		}
	}
	return members
}
