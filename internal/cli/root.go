package cli

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/syncclient"
)

type Dependencies struct {
	Out        io.Writer
	HTTPClient *http.Client
	Log        *zap.Logger

	remote *syncclient.Remote
	sync   *syncclient.Client
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var server string

	rootCmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Control an Ask-AI quiz session",
		Long:          "quizctl drives the shared quiz session from the terminal: select teams, open the mic, ask, judge, and watch the round live.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if deps.Log == nil {
				deps.Log = zap.NewNop()
			}
			if deps.HTTPClient == nil {
				deps.HTTPClient = &http.Client{Timeout: 90 * time.Second}
			}
			deps.remote = syncclient.NewRemote(server, deps.HTTPClient)
			deps.sync = syncclient.New(deps.remote, deps.Log)
		},
	}
	rootCmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "quiz server base URL")

	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewStatusCmd(deps))
	rootCmd.AddCommand(NewSelectCmd(deps))
	rootCmd.AddCommand(NewListenCmd(deps))
	rootCmd.AddCommand(NewAskCmd(deps))
	rootCmd.AddCommand(NewJudgeCmd(deps))
	rootCmd.AddCommand(NewResetCmd(deps))
	rootCmd.AddCommand(NewPurgeCmd(deps))
	rootCmd.AddCommand(NewSayCmd(deps))

	return rootCmd
}

// mutate performs write through the sync client and prints the refreshed
// session.
func mutate(cmd *cobra.Command, deps *Dependencies, write func(ctx context.Context) error) error {
	s, err := deps.sync.Mutate(cmd.Context(), write)
	if err != nil {
		return err
	}
	NewFormatter(deps.Out).Session(s)
	return nil
}

// discard adapts a Remote call returning a session to a Mutate write.
func discard(call func(ctx context.Context) (engine.Session, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := call(ctx)
		return err
	}
}
