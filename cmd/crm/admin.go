package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Strob0t/crm/internal/adapter/postgres"
	"github.com/Strob0t/crm/internal/domain/user"
	"github.com/Strob0t/crm/internal/service"
)

func newAdminCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage user accounts directly in the database",
		Example: `  crm admin create-user --email admin@example.com --name "Admin" --admin
  crm admin reset-password --email admin@example.com
  crm admin set-role --email someone@example.com --role ADMIN
  crm admin list-users`,
	}
	cmd.AddCommand(
		newCreateUserCommand(opts),
		newResetPasswordCommand(opts),
		newSetRoleCommand(opts),
		newListUsersCommand(opts),
	)
	return cmd
}

func loadAdminDeps(ctx context.Context, opts *rootOptions) (*service.AuthService, func(), error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// Admin tooling never issues tokens; a placeholder keeps the service usable
	// when no secret is configured on the operator's machine.
	authCfg := cfg.Auth
	if authCfg.JWTSecret == "" {
		authCfg.JWTSecret = "admin-cli"
	}
	authSvc, err := service.NewAuthService(postgres.NewStore(pool), authCfg)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return authSvc, pool.Close, nil
}

func newCreateUserCommand(opts *rootOptions) *cobra.Command {
	var email, name, password string
	var admin bool
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user, optionally with the ADMIN role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || name == "" {
				return errors.New("--email and --name are required")
			}
			pass, err := passwordOrPrompt(password, "Password: ")
			if err != nil {
				return err
			}

			role := user.RoleUser
			if admin {
				role = user.RoleAdmin
			}

			authSvc, cleanup, err := loadAdminDeps(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			u, err := authSvc.CreateUser(cmd.Context(), &user.RegisterRequest{
				Name:     name,
				Email:    email,
				Password: pass,
				Role:     role,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(os.Stderr, "User created: %s (id=%d, role=%s)\n", u.Email, u.ID, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "user display name (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if not provided)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the ADMIN role")
	return cmd
}

func newResetPasswordCommand(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			pass, err := passwordOrPrompt(password, "New password: ")
			if err != nil {
				return err
			}

			authSvc, cleanup, err := loadAdminDeps(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := authSvc.ResetPassword(cmd.Context(), email, pass); err != nil {
				return fmt.Errorf("reset password: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Password reset successfully for %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "new password (prompted if not provided)")
	return cmd
}

func newSetRoleCommand(opts *rootOptions) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change a user's role (USER or ADMIN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			authSvc, cleanup, err := loadAdminDeps(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := authSvc.SetRole(cmd.Context(), email, user.Role(role)); err != nil {
				return fmt.Errorf("set role: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Role of %s set to %s\n", email, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email address (required)")
	cmd.Flags().StringVar(&role, "role", string(user.RoleAdmin), "new role")
	return cmd
}

func newListUsersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			authSvc, cleanup, err := loadAdminDeps(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			users, err := authSvc.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Println("No users found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tCREATED")
			for i := range users {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					users[i].ID, users[i].Email, users[i].Name, users[i].Role, users[i].CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

// passwordOrPrompt returns flagValue when set, otherwise prompts twice.
func passwordOrPrompt(flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	pass, err := promptPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if pass != confirm {
		return "", errors.New("passwords do not match")
	}
	return pass, nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
