package modules

import (
	"context"

	"github.com/driftworks/driftd/internal/mssql"
	"github.com/driftworks/driftd/internal/state"
	"github.com/driftworks/driftd/internal/states"
)

// RegisterMSSQL wires the SQL Server operations and the mssql_database
// states against one configured instance.
func RegisterMSSQL(r *Registry, m *mssql.Module) {
	r.Register(Function{
		Name:   "mssql.tsql_query",
		Doc:    "Run a raw T-SQL query and return the result rows",
		Params: []string{"query"},
		Call: func(ctx context.Context, args Args) (any, error) {
			query, err := args.String("query")
			if err != nil {
				return nil, err
			}
			return m.Query(ctx, query)
		},
	})

	r.Register(Function{
		Name: "mssql.ping",
		Doc:  "Verify connectivity to the configured instance",
		Call: func(ctx context.Context, _ Args) (any, error) {
			if err := m.Ping(ctx); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name: "mssql.version",
		Doc:  "Server version string",
		Call: func(ctx context.Context, _ Args) (any, error) {
			return m.Version(ctx)
		},
	})

	r.Register(Function{
		Name: "mssql.db_list",
		Doc:  "List the databases on the instance",
		Call: func(ctx context.Context, _ Args) (any, error) {
			return m.Databases(ctx)
		},
	})

	r.Register(Function{
		Name:   "mssql.db_exists",
		Doc:    "Whether the named database exists",
		Params: []string{"name"},
		Call: func(ctx context.Context, args Args) (any, error) {
			name, err := args.String("name")
			if err != nil {
				return nil, err
			}
			return m.DatabaseExists(ctx, name)
		},
	})

	r.Register(Function{
		Name:   "mssql.db_create",
		Doc:    "Create a database with optional containment and options",
		Params: []string{"name", "containment", "options"},
		Call: func(ctx context.Context, args Args) (any, error) {
			name, err := args.String("name")
			if err != nil {
				return nil, err
			}
			containment, err := args.StringOr("containment", "NONE")
			if err != nil {
				return nil, err
			}
			options, err := args.Strings("options")
			if err != nil {
				return nil, err
			}
			if err := m.CreateDatabase(ctx, name, containment, options); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "mssql.db_remove",
		Doc:    "Drop a database, forcing it to single-user mode first",
		Params: []string{"name"},
		Call: func(ctx context.Context, args Args) (any, error) {
			name, err := args.String("name")
			if err != nil {
				return nil, err
			}
			if err := m.DropDatabase(ctx, name); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name: "mssql.role_list",
		Doc:  "List the server roles",
		Call: func(ctx context.Context, _ Args) (any, error) {
			return m.Roles(ctx)
		},
	})

	r.Register(Function{
		Name:   "mssql.role_exists",
		Doc:    "Whether the named role exists",
		Params: []string{"role"},
		Call: func(ctx context.Context, args Args) (any, error) {
			role, err := args.String("role")
			if err != nil {
				return nil, err
			}
			return m.RoleExists(ctx, role)
		},
	})

	r.Register(Function{
		Name:   "mssql.role_create",
		Doc:    "Create a role with an optional owner and grants",
		Params: []string{"role", "owner", "grants"},
		Call: func(ctx context.Context, args Args) (any, error) {
			role, err := args.String("role")
			if err != nil {
				return nil, err
			}
			owner, err := args.StringOr("owner", "")
			if err != nil {
				return nil, err
			}
			grants, err := args.Strings("grants")
			if err != nil {
				return nil, err
			}
			if err := m.CreateRole(ctx, role, owner, grants); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "mssql.role_remove",
		Doc:    "Drop a role",
		Params: []string{"role"},
		Call: func(ctx context.Context, args Args) (any, error) {
			role, err := args.String("role")
			if err != nil {
				return nil, err
			}
			if err := m.DropRole(ctx, role); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "mssql.login_exists",
		Doc:    "Whether the login exists, qualified by domain when given",
		Params: []string{"login", "domain"},
		Call: func(ctx context.Context, args Args) (any, error) {
			login, err := args.String("login")
			if err != nil {
				return nil, err
			}
			domain, err := args.StringOr("domain", "")
			if err != nil {
				return nil, err
			}
			return m.LoginExists(ctx, login, domain)
		},
	})

	r.Register(Function{
		Name:   "mssql.login_create",
		Doc:    "Create a login from a password or a Windows domain account",
		Params: []string{"login", "password", "hashed", "domain", "roles", "options"},
		Call: func(ctx context.Context, args Args) (any, error) {
			login, err := args.String("login")
			if err != nil {
				return nil, err
			}
			var opts mssql.LoginOptions
			if opts.Password, err = args.StringOr("password", ""); err != nil {
				return nil, err
			}
			if opts.PasswordHashed, err = args.Bool("hashed", false); err != nil {
				return nil, err
			}
			if opts.Domain, err = args.StringOr("domain", ""); err != nil {
				return nil, err
			}
			if opts.Roles, err = args.Strings("roles"); err != nil {
				return nil, err
			}
			if opts.Options, err = args.Strings("options"); err != nil {
				return nil, err
			}
			if err := m.CreateLogin(ctx, login, opts); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "mssql.login_remove",
		Doc:    "Drop a login",
		Params: []string{"login"},
		Call: func(ctx context.Context, args Args) (any, error) {
			login, err := args.String("login")
			if err != nil {
				return nil, err
			}
			if err := m.DropLogin(ctx, login); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name: "mssql.user_list",
		Doc:  "List the users of the configured database",
		Call: func(ctx context.Context, _ Args) (any, error) {
			return m.Users(ctx)
		},
	})

	r.Register(Function{
		Name:   "mssql.user_exists",
		Doc:    "Whether the user exists in the configured database",
		Params: []string{"username", "domain"},
		Call: func(ctx context.Context, args Args) (any, error) {
			username, err := args.String("username")
			if err != nil {
				return nil, err
			}
			domain, err := args.StringOr("domain", "")
			if err != nil {
				return nil, err
			}
			return m.UserExists(ctx, username, domain)
		},
	})

	r.Register(Function{
		Name:   "mssql.user_create",
		Doc:    "Create a database user, optionally bound to a login",
		Params: []string{"username", "login", "domain", "roles", "options"},
		Call: func(ctx context.Context, args Args) (any, error) {
			username, err := args.String("username")
			if err != nil {
				return nil, err
			}
			var opts mssql.UserOptions
			if opts.Login, err = args.StringOr("login", ""); err != nil {
				return nil, err
			}
			if opts.Domain, err = args.StringOr("domain", ""); err != nil {
				return nil, err
			}
			if opts.Roles, err = args.Strings("roles"); err != nil {
				return nil, err
			}
			if opts.Options, err = args.Strings("options"); err != nil {
				return nil, err
			}
			if err := m.CreateUser(ctx, username, opts); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "mssql.user_remove",
		Doc:    "Drop a user from the configured database",
		Params: []string{"username"},
		Call: func(ctx context.Context, args Args) (any, error) {
			username, err := args.String("username")
			if err != nil {
				return nil, err
			}
			if err := m.DropUser(ctx, username); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	database := &states.Database{Module: m}

	r.RegisterState(State{
		Name:   "mssql_database.present",
		Doc:    "Ensure a database exists",
		Params: []string{"containment", "db_opts"},
		Apply: func(ctx context.Context, name string, params Args, dryRun bool) state.Result {
			containment, err := params.StringOr("containment", "NONE")
			if err != nil {
				return state.Failed(name, err.Error())
			}
			options, _ := params.Any("db_opts")
			return database.Present(ctx, name, containment, options, dryRun)
		},
	})

	r.RegisterState(State{
		Name: "mssql_database.absent",
		Doc:  "Ensure a database does not exist",
		Apply: func(ctx context.Context, name string, _ Args, dryRun bool) state.Result {
			return database.Absent(ctx, name, dryRun)
		},
	})
}
