package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/pkg/types"
)

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := deps.sync.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			NewFormatter(deps.Out).Session(s)
			return nil
		},
	}
}

func NewStatusCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:       "status <PREVIEW|LIVE|LOCKED|REVEALED>",
		Short:     "Set the round status",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"PREVIEW", "LIVE", "LOCKED", "REVEALED"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status := engine.Status(strings.ToUpper(args[0]))
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", args[0])
			}
			return mutate(cmd, deps, discard(func(ctx context.Context) (engine.Session, error) {
				return deps.remote.SetStatus(ctx, status)
			}))
		},
	}
}

func NewSelectCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "select <teamId>",
		Short: "Give a team the microphone (unknown ids are ignored)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, deps, discard(func(ctx context.Context) (engine.Session, error) {
				return deps.remote.SelectTeam(ctx, args[0])
			}))
		},
	}
}

func NewListenCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Open the active team's mic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, deps, discard(func(ctx context.Context) (engine.Session, error) {
				return deps.remote.SetAskAIState(ctx, types.AskAIStateRequest{State: engine.AskAIListening})
			}))
		},
	}
}

func NewAskCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Submit the active team's question and wait for the AI's answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return mutate(cmd, deps, discard(func(ctx context.Context) (engine.Session, error) {
				return deps.remote.Ask(ctx, question)
			}))
		},
	}
}

func NewJudgeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:       "judge <AI_CORRECT|AI_WRONG>",
		Short:     "Record the verdict; AI_WRONG scores the active team",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(engine.VerdictAICorrect), string(engine.VerdictAIWrong)},
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := engine.Verdict(strings.ToUpper(args[0]))
			if !verdict.Valid() {
				return fmt.Errorf("unknown verdict %q", args[0])
			}
			return mutate(cmd, deps, discard(func(ctx context.Context) (engine.Session, error) {
				return deps.remote.Judge(ctx, verdict)
			}))
		},
	}
}

func NewResetCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start a new game: keep teams, zero scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, deps, discard(deps.remote.Reset))
		},
	}
}

func NewPurgeCmd(deps *Dependencies) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the session record and the speech and transcript caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("purge deletes all stored state; pass --yes to confirm")
			}
			return mutate(cmd, deps, discard(deps.remote.Purge))
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
