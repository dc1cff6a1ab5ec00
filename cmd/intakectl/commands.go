package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/project-intake/internal/api/dto"
	"github.com/spec-kit/project-intake/internal/config"
	"github.com/spec-kit/project-intake/internal/domain"
	"github.com/spec-kit/project-intake/internal/observability"
	"github.com/spec-kit/project-intake/internal/optimistic"
	"github.com/spec-kit/project-intake/internal/persistence"
	"github.com/spec-kit/project-intake/internal/repository"
	"github.com/spec-kit/project-intake/internal/service"
	"github.com/spec-kit/project-intake/pkg/client"
)

const version = "0.1.0"

func rootCmd() *cobra.Command {
	var (
		serverURL string
		token     string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:           "intakectl",
		Short:         "Operate and script the project-intake service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (default from INTAKE_SERVER_URL)")
	cmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (default from INTAKE_TOKEN)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Per-command timeout")

	remote := func() (*client.Client, *config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		url := serverURL
		if url == "" {
			url = cfg.Client.ServerURL
		}
		bearer := token
		if bearer == "" {
			bearer = cfg.Client.Token
		}
		return client.New(url, client.WithToken(bearer), client.WithTimeout(timeout)), cfg, nil
	}
	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "intakectl version %s\n", version)
			},
		},
		migrateCmd(),
		createAdminCmd(),
		loginCmd(remote, withTimeout),
		dashboardCmd(remote, withTimeout),
		setStatusCmd(remote, withTimeout),
		assignCmd(remote, withTimeout),
	)
	return cmd
}

type remoteFactory func() (*client.Client, *config.Config, error)

type timeoutFactory func(*cobra.Command) (context.Context, context.CancelFunc)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadOperator()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := connectPostgres(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger)
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Provision an admin account directly in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadOperator()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := connectPostgres(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			pool := pg.PoolHandle()
			svc := service.NewAuthService(cfg.Auth, service.AuthDependencies{
				AccountRepo: repository.NewAccountRepository(pool),
				ProfileRepo: repository.NewProfileRepository(pool),
				Logger:      logger,
			})
			admin, err := svc.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd(remote remoteFactory, withTimeout timeoutFactory) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print a bearer token for INTAKE_TOKEN",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := remote()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			result, err := api.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func dashboardCmd(remote remoteFactory, withTimeout timeoutFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the caller's project view as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := remote()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			view, err := api.Dashboard(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), dto.NewDashboardResponse(*view))
		},
	}
}

func setStatusCmd(remote remoteFactory, withTimeout timeoutFactory) *cobra.Command {
	var override bool
	cmd := &cobra.Command{
		Use:   "set-status <project-id> <status>",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := domain.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			return mutate(cmd, remote, withTimeout, func(ctx context.Context, view *optimistic.Coordinator) (*domain.Project, error) {
				return view.SetStatus(ctx, id, status, override)
			})
		},
	}
	cmd.Flags().BoolVar(&override, "override", false, "Leave a terminal status (admin only)")
	return cmd
}

func assignCmd(remote remoteFactory, withTimeout timeoutFactory) *cobra.Command {
	var reset string
	cmd := &cobra.Command{
		Use:   "assign <project-id> [developer-email]",
		Short: "Assign or clear a project's developer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			email := ""
			if len(args) == 2 {
				email = args[1]
			}
			var resetStatus *domain.ProjectStatus
			if cmd.Flags().Changed("reset") {
				parsed, err := domain.ParseProjectStatus(reset)
				if err != nil {
					return err
				}
				resetStatus = &parsed
			}
			return mutate(cmd, remote, withTimeout, func(ctx context.Context, view *optimistic.Coordinator) (*domain.Project, error) {
				return view.AssignDeveloper(ctx, id, email, resetStatus)
			})
		},
	}
	cmd.Flags().StringVar(&reset, "reset", "", "Also reset status to Pending, reviewing or approved")
	return cmd
}

// mutate loads the caller's view, applies one change through the optimistic
// coordinator and prints the resulting record.
func mutate(cmd *cobra.Command, remote remoteFactory, withTimeout timeoutFactory, change func(context.Context, *optimistic.Coordinator) (*domain.Project, error)) error {
	api, cfg, err := remote()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := withTimeout(cmd)
	defer cancel()

	view := optimistic.NewCoordinator(api, logger)
	if err := view.Reload(ctx); err != nil {
		return err
	}
	project, err := change(ctx, view)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), dto.NewProjectResponse(*project))
}

func loadOperator() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persistence.Postgres, error) {
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return persistence.NewPostgres(ctx, cfg.Postgres, logger)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", raw)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
