package modules

import (
	"context"
	"fmt"

	"github.com/driftworks/driftd/internal/modjk"
)

// RegisterModJK wires the mod_jk status worker operations. Every function
// takes an optional profile argument selecting one of the configured
// endpoints; "default" when omitted.
func RegisterModJK(r *Registry, clients map[string]*modjk.Client) {
	pick := func(args Args) (*modjk.Client, error) {
		profile, err := args.StringOr("profile", "default")
		if err != nil {
			return nil, err
		}
		client, ok := clients[profile]
		if !ok {
			return nil, &InvocationError{Field: "profile", Reason: fmt.Sprintf("no modjk profile named %s", profile)}
		}
		return client, nil
	}

	simple := func(name, doc string, call func(context.Context, *modjk.Client) (any, error)) {
		r.Register(Function{Name: name, Doc: doc, Params: []string{"profile"}, Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			return call(ctx, client)
		}})
	}

	simple("modjk.version", "mod_jk version reported by the status worker", func(ctx context.Context, c *modjk.Client) (any, error) {
		return c.Version(ctx)
	})
	simple("modjk.get_running", "Running configuration of all workers", func(ctx context.Context, c *modjk.Client) (any, error) {
		return c.Running(ctx)
	})
	simple("modjk.dump_config", "Full worker configuration dump", func(ctx context.Context, c *modjk.Client) (any, error) {
		return c.DumpConfig(ctx)
	})
	simple("modjk.workers", "Activation and error state per worker", func(ctx context.Context, c *modjk.Client) (any, error) {
		return c.Workers(ctx)
	})

	balancer := func(name, doc string, call func(context.Context, *modjk.Client, string) (any, error)) {
		r.Register(Function{Name: name, Doc: doc, Params: []string{"balancer", "profile"}, Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			lbn, err := args.String("balancer")
			if err != nil {
				return nil, err
			}
			return call(ctx, client, lbn)
		}})
	}

	balancer("modjk.list_configured_members", "Members configured on a load balancer", func(ctx context.Context, c *modjk.Client, lbn string) (any, error) {
		return c.ConfiguredMembers(ctx, lbn)
	})
	balancer("modjk.recover_all", "Activate and recover every worker of a balancer", func(ctx context.Context, c *modjk.Client, lbn string) (any, error) {
		return c.RecoverAll(ctx, lbn)
	})
	balancer("modjk.reset_stats", "Reset the statistics of a balancer", func(ctx context.Context, c *modjk.Client, lbn string) (any, error) {
		if err := c.ResetStats(ctx, lbn); err != nil {
			return nil, err
		}
		return true, nil
	})

	r.Register(Function{
		Name:   "modjk.lb_edit",
		Doc:    "Edit the settings of a load balancer",
		Params: []string{"balancer", "settings", "profile"},
		Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			lbn, err := args.String("balancer")
			if err != nil {
				return nil, err
			}
			settings, err := args.StringMap("settings")
			if err != nil {
				return nil, err
			}
			if err := client.EditBalancer(ctx, lbn, settings); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	worker := func(name, doc string, call func(context.Context, *modjk.Client, string, string) (any, error)) {
		r.Register(Function{Name: name, Doc: doc, Params: []string{"worker", "balancer", "profile"}, Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			name, err := args.String("worker")
			if err != nil {
				return nil, err
			}
			lbn, err := args.String("balancer")
			if err != nil {
				return nil, err
			}
			return call(ctx, client, name, lbn)
		}})
	}

	worker("modjk.worker_recover", "Recover a worker from its error state", func(ctx context.Context, c *modjk.Client, w, lbn string) (any, error) {
		return c.RecoverWorker(ctx, w, lbn)
	})
	worker("modjk.worker_activate", "Set a worker to the active state", func(ctx context.Context, c *modjk.Client, w, lbn string) (any, error) {
		if err := c.ActivateWorker(ctx, w, lbn); err != nil {
			return nil, err
		}
		return true, nil
	})
	worker("modjk.worker_disable", "Set a worker to the disabled state", func(ctx context.Context, c *modjk.Client, w, lbn string) (any, error) {
		if err := c.DisableWorker(ctx, w, lbn); err != nil {
			return nil, err
		}
		return true, nil
	})
	worker("modjk.worker_stop", "Set a worker to the stopped state", func(ctx context.Context, c *modjk.Client, w, lbn string) (any, error) {
		if err := c.StopWorker(ctx, w, lbn); err != nil {
			return nil, err
		}
		return true, nil
	})

	r.Register(Function{
		Name:   "modjk.worker_status",
		Doc:    "Activation and error state of one worker",
		Params: []string{"worker", "profile"},
		Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			name, err := args.String("worker")
			if err != nil {
				return nil, err
			}
			return client.WorkerStatus(ctx, name)
		},
	})

	r.Register(Function{
		Name:   "modjk.worker_edit",
		Doc:    "Edit the settings of one worker",
		Params: []string{"worker", "balancer", "settings", "profile"},
		Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			name, err := args.String("worker")
			if err != nil {
				return nil, err
			}
			lbn, err := args.String("balancer")
			if err != nil {
				return nil, err
			}
			settings, err := args.StringMap("settings")
			if err != nil {
				return nil, err
			}
			if err := client.EditWorker(ctx, name, lbn, settings); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	bulk := func(name, doc string, call func(context.Context, *modjk.Client, []string, string) map[string]bool) {
		r.Register(Function{Name: name, Doc: doc, Params: []string{"workers", "balancer", "profile"}, Call: func(ctx context.Context, args Args) (any, error) {
			client, err := pick(args)
			if err != nil {
				return nil, err
			}
			workers, err := workerList(args)
			if err != nil {
				return nil, err
			}
			lbn, err := args.String("balancer")
			if err != nil {
				return nil, err
			}
			return call(ctx, client, workers, lbn), nil
		}})
	}

	bulk("modjk.bulk_stop", "Stop several workers, reporting success per worker", func(ctx context.Context, c *modjk.Client, workers []string, lbn string) map[string]bool {
		return c.BulkStop(ctx, workers, lbn)
	})
	bulk("modjk.bulk_activate", "Activate several workers, reporting success per worker", func(ctx context.Context, c *modjk.Client, workers []string, lbn string) map[string]bool {
		return c.BulkActivate(ctx, workers, lbn)
	})
	bulk("modjk.bulk_disable", "Disable several workers, reporting success per worker", func(ctx context.Context, c *modjk.Client, workers []string, lbn string) map[string]bool {
		return c.BulkDisable(ctx, workers, lbn)
	})
	bulk("modjk.bulk_recover", "Recover several workers, reporting success per worker", func(ctx context.Context, c *modjk.Client, workers []string, lbn string) map[string]bool {
		return c.BulkRecover(ctx, workers, lbn)
	})
}

// workerList reads the workers argument, accepting a list or a comma
// separated string.
func workerList(args Args) ([]string, error) {
	raw, ok := args.Any("workers")
	if !ok || raw == nil {
		return nil, &InvocationError{Field: "workers", Reason: "must be set"}
	}
	if s, ok := raw.(string); ok {
		return modjk.SplitWorkers(s), nil
	}
	return args.Strings("workers")
}
