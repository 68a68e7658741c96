package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mediakit/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind = strings.TrimSpace(bind); bind != "" {
				cfg.Server.Bind = bind
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override the listen address (host:port)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}
