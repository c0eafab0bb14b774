package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memora/internal/summarize"
)

func newResummarizeCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "resummarize <recording-id>",
		Short: "Generate a new transcript version with a fresh summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordingID(args[0])
			if err != nil {
				return err
			}
			mode, ok := summarize.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("unknown mode %q (valid: summarize, fix, highlights)", modeFlag)
			}

			release, err := ctx.acquireLibraryLock()
			if err != nil {
				return err
			}
			defer release()

			runner, st, err := buildRunner(ctx, mode)
			if err != nil {
				return err
			}
			defer st.Close()

			transcript, err := runner.Resummarize(cmd.Context(), id, mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recording %d now at transcript version %d\n", id, transcript.Version)
			if transcript.Title != "" {
				fmt.Fprintf(out, "Title: %s\n", transcript.Title)
			}
			if transcript.Summary != "" {
				fmt.Fprintf(out, "Summary: %s\n", transcript.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "summarize", "Summarization mode (summarize, fix, highlights)")
	return cmd
}
