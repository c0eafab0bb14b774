package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var versionFlag int
	var fullFlag bool

	cmd := &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Show a recording's transcript and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordingID(args[0])
			if err != nil {
				return err
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.GetRecording(cmd.Context(), id)
			if err != nil {
				return err
			}

			transcripts, err := st.ListTranscripts(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recording #%d  %s\n", rec.ID, rec.Filename)
			fmt.Fprintf(out, "File:      %s (%s)\n", rec.FilePath, formatSize(rec.FileSize))
			fmt.Fprintf(out, "Length:    %s\n", formatDuration(rec.Duration))
			fmt.Fprintf(out, "Added:     %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Processed: %s\n", yesNo(rec.Processed))

			if len(transcripts) == 0 {
				fmt.Fprintln(out, "\nNo transcripts yet.")
				return nil
			}

			selected := transcripts[len(transcripts)-1]
			for _, transcript := range transcripts {
				if versionFlag > 0 && transcript.Version == versionFlag {
					selected = transcript
				} else if versionFlag == 0 && transcript.IsFinal {
					selected = transcript
				}
			}
			if versionFlag > 0 && selected.Version != versionFlag {
				return fmt.Errorf("recording %d has no transcript version %d", id, versionFlag)
			}

			fmt.Fprintf(out, "\nTranscript v%d (final: %s, versions: %d)\n", selected.Version, yesNo(selected.IsFinal), len(transcripts))
			if selected.Title != "" {
				fmt.Fprintf(out, "Title:   %s\n", selected.Title)
			}
			if selected.Tags != "" {
				fmt.Fprintf(out, "Tags:    %s\n", selected.Tags)
			}
			if selected.Summary != "" {
				fmt.Fprintf(out, "Summary: %s\n", selected.Summary)
			}

			fmt.Fprintln(out)
			if fullFlag {
				for _, seg := range selected.Segments {
					fmt.Fprintf(out, "[%7.2f - %7.2f] %s\n", seg.Start, seg.End, seg.Text)
				}
				if len(selected.Segments) == 0 {
					fmt.Fprintln(out, selected.FullText)
				}
			} else {
				fmt.Fprintln(out, truncateText(selected.FullText, 500))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&versionFlag, "version", "v", 0, "Transcript version to show (default: final)")
	cmd.Flags().BoolVar(&fullFlag, "full", false, "Print the full transcript with segment timings")
	return cmd
}
