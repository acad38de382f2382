package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func NewSayCmd(deps *Dependencies) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "say <text...>",
		Short: "Synthesize host speech (cached on the server)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := NewFormatter(deps.Out)

			resp, err := deps.remote.Synthesize(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !resp.Available {
				formatter.Warning("speech synthesis is unavailable")
				return nil
			}

			audio, err := decodeDataURL(resp.Audio)
			if err != nil {
				return err
			}
			if out == "" {
				formatter.Success(fmt.Sprintf("synthesized %d bytes of audio", len(audio)))
				return nil
			}
			if err := os.WriteFile(out, audio, 0o644); err != nil {
				return err
			}
			formatter.Success("audio saved: " + out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the audio to this file")
	return cmd
}

func decodeDataURL(u string) ([]byte, error) {
	_, data, ok := strings.Cut(u, ";base64,")
	if !ok || !strings.HasPrefix(u, "data:") {
		return nil, fmt.Errorf("unexpected audio payload")
	}
	return base64.StdEncoding.DecodeString(data)
}
