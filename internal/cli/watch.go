package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/syncclient"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the session and print every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			formatter := NewFormatter(deps.Out)
			formatter.Info("watching " + cmd.Flag("server").Value.String())

			client := syncclient.New(deps.remote, deps.Log,
				syncclient.WithInterval(interval),
				syncclient.OnChange(func(s engine.Session) {
					formatter.Divider()
					formatter.Session(s)
				}))
			return client.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", syncclient.DefaultInterval, "poll interval")
	return cmd
}
