// Package main is the driftd command. driftd keeps infrastructure endpoints
// (Cisco IMC controllers, SQL Server instances, block devices, mod_jk
// balancers, Open vSwitch ports) in their declared state: `driftd call`
// invokes single operations, `driftd apply` reconciles a plan, `driftd serve`
// runs the agent with its local HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftworks/driftd/internal/blockdev"
	"github.com/driftworks/driftd/internal/config"
	"github.com/driftworks/driftd/internal/imc"
	"github.com/driftworks/driftd/internal/modjk"
	"github.com/driftworks/driftd/internal/modules"
	"github.com/driftworks/driftd/internal/mssql"
	"github.com/driftworks/driftd/internal/notify/mattermost"
	"github.com/driftworks/driftd/internal/openvswitch"
	"github.com/driftworks/driftd/internal/shell"
)

// Build information, populated by ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgFile string

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		if _, ok := modules.AsInvocation(err); ok {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "driftd",
		Short:        "Keep infrastructure endpoints in their declared state",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default /etc/driftd/driftd.yaml)")
	root.AddCommand(
		buildServeCmd(),
		buildCallCmd(),
		buildApplyCmd(),
		buildModulesCmd(),
		buildVersionCmd(),
	)
	return root
}

// endpoints is the wired module set of one invocation.
type endpoints struct {
	registry *modules.Registry
	notifier *mattermost.Client
	closers  []func() error
}

func (e *endpoints) close() {
	for _, fn := range e.closers {
		_ = fn()
	}
}

// wireEndpoints builds every endpoint client the configuration names and
// registers its module. Unconfigured endpoints and missing executables are
// marked unavailable so lookups and the health endpoint explain themselves.
func wireEndpoints(cfg config.Config) (*endpoints, error) {
	eps := &endpoints{registry: modules.NewRegistry()}
	reg := eps.registry

	if cfg.IMC != nil {
		client, err := imc.NewClient(*cfg.IMC)
		if err != nil {
			return nil, fmt.Errorf("configure imc: %w", err)
		}
		modules.RegisterIMC(reg, imc.NewModule(client))
	} else {
		reg.MarkUnavailable("imc", "imc is not configured")
	}

	if cfg.MSSQL != nil {
		db, err := mssql.Open(*cfg.MSSQL)
		if err != nil {
			return nil, fmt.Errorf("configure mssql: %w", err)
		}
		eps.closers = append(eps.closers, db.Close)
		modules.RegisterMSSQL(reg, db)
	} else {
		reg.MarkUnavailable("mssql", "mssql is not configured")
		reg.MarkUnavailable("mssql_database", "mssql is not configured")
	}

	if shell.Available("blockdev") {
		modules.RegisterBlockdev(reg, blockdev.NewModule(shell.Exec{}))
	} else {
		reg.MarkUnavailable("blockdev", "blockdev executable not found")
	}

	if shell.Available("ovs-vsctl") {
		modules.RegisterOpenvswitch(reg, openvswitch.NewModule(shell.Exec{}))
	} else {
		reg.MarkUnavailable("openvswitch", "ovs-vsctl executable not found")
		reg.MarkUnavailable("ovs_port", "ovs-vsctl executable not found")
	}

	if len(cfg.ModJK) > 0 {
		clients := make(map[string]*modjk.Client, len(cfg.ModJK))
		for profile, pc := range cfg.ModJK {
			client, err := modjk.NewClient(pc)
			if err != nil {
				return nil, fmt.Errorf("configure modjk profile %s: %w", profile, err)
			}
			clients[profile] = client
		}
		modules.RegisterModJK(reg, clients)
	} else {
		reg.MarkUnavailable("modjk", "no balancer profiles configured")
	}

	if cfg.Mattermost != nil {
		client, err := mattermost.NewClient(*cfg.Mattermost)
		if err != nil {
			return nil, fmt.Errorf("configure mattermost: %w", err)
		}
		eps.notifier = client
		modules.RegisterMattermost(reg, client)
	} else {
		reg.MarkUnavailable("mattermost", "mattermost is not configured")
	}

	return eps, nil
}
