// Command crm runs the CRM backend and its maintenance tooling.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/crm/internal/config"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadFrom(o.configFile, o.envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:           "crm",
		Short:         "CRM backend: REST API for companies, contacts, deals and activities",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Bare "crm" serves, matching the container entrypoint.
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", config.DefaultConfigFile, "YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file merged into the environment (optional)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newMigrateCommand(opts), newAdminCommand(opts))
	return root
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := newRootCommand().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
