package main

import (
	"fmt"

	"fork-your-story/internal/ai"
	"fork-your-story/internal/prompts"

	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the AI key is loaded and the model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := ai.NewClient(ctx, a.cfg.ToServiceAI(), a.zl)
			if err != nil {
				return err
			}
			prompt, err := prompts.Default().Render(prompts.Test, nil)
			if err != nil {
				return err
			}
			text, usage, err := client.GenerateText(ctx, prompts.Test, prompt, ai.GenerationParams{})
			if err != nil {
				return fmt.Errorf("probe failed (%s): %w", ai.KindOf(err), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model: %s\nresponse: %s\ntokens: %d\n", client.Model(), text, usage.TotalTokens)
			return nil
		},
	}
}
