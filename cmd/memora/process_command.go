package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"memora/internal/config"
	"memora/internal/engine"
	"memora/internal/pipeline"
	"memora/internal/services/ffmpeg"
	"memora/internal/services/ollama"
	"memora/internal/services/openai"
	"memora/internal/services/whisper"
	"memora/internal/store"
	"memora/internal/summarize"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "process <audio-file> [audio-file...]",
		Short: "Normalize, transcribe, summarize, and archive audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := summarize.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("unknown mode %q (valid: summarize, fix, highlights)", modeFlag)
			}

			inputs := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("inspect input %q: %w", arg, err)
				}
				inputs = append(inputs, path)
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

			outcomes, runErr := runner.RunAll(cmd.Context(), inputs)
			printOutcomes(cmd.OutOrStdout(), outcomes)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "summarize", "Summarization mode (summarize, fix, highlights)")
	return cmd
}

// buildRunner wires the pipeline from the resolved runtime settings. The
// caller owns closing the returned store.
func buildRunner(ctx *commandContext, mode summarize.Mode) (*pipeline.Runner, *store.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	st, err := ctx.openStore()
	if err != nil {
		return nil, nil, err
	}

	settings, err := pipeline.ResolveSettings(context.Background(), st, cfg)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	normalizer := ffmpeg.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(),
		ffmpeg.WithDeleteSource(settings.AutoDelete),
		ffmpeg.WithLogger(logger),
	)

	cache := engine.NewCache(whisper.Factory(whisper.Options{
		Binary:  cfg.Whisper.Binary,
		WorkDir: cfg.Paths.TempDir,
	}), logger)

	local := ollama.NewClient(ollama.Config{
		BaseURL: settings.OllamaURL,
		Model:   settings.OllamaModel,
		Timeout: time.Duration(cfg.Ollama.TimeoutSeconds) * time.Second,
	})
	remote := openai.NewClient(openai.Config{
		APIKey:         settings.APIKey,
		BaseURL:        cfg.Fallback.BaseURL,
		Model:          cfg.Fallback.Model,
		TimeoutSeconds: cfg.Fallback.TimeoutSeconds,
	})
	summarizer := summarize.New(local, remote, logger)

	runner := pipeline.NewRunner(cfg, st, normalizer, cache, summarizer, logger,
		pipeline.WithMode(mode))
	return runner, st, nil
}
