package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var keepFile bool

	cmd := &cobra.Command{
		Use:   "delete <recording-id>",
		Short: "Delete a recording, its transcripts, and its audio file",
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
			if err := st.DeleteRecording(cmd.Context(), id); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !keepFile && rec.FilePath != "" {
				if removeErr := os.Remove(rec.FilePath); removeErr != nil && !os.IsNotExist(removeErr) {
					fmt.Fprintf(out, "Deleted recording %d, but could not remove %s: %v\n", id, rec.FilePath, removeErr)
					return nil
				}
			}
			fmt.Fprintf(out, "Deleted recording %d (%s)\n", id, rec.Filename)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFile, "keep-file", false, "Keep the audio file on disk")
	return cmd
}
