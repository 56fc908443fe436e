package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	serverx "github.com/RaphaelKarmalker/personal-assistant-v2/agent/server"
)

func newServeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the WebSocket voice server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.store.Init(ctx); err != nil {
				return err
			}

			srv := serverx.New(app.serverCfg, app.newPipeline)
			return srv.Run(ctx)
		},
	}
}
