package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"memora/internal/config"
	"memora/internal/engine"
	"memora/internal/logging"
	"memora/internal/services"
	"memora/internal/store"
	"memora/internal/summarize"
	"memora/internal/transcribe"
)

// Normalizer converts an input audio file into the canonical storage format.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, outputDir string) (string, error)
	Duration(ctx context.Context, path string) float64
}

// EngineProvider hands out transcription engines for a resolved config.
type EngineProvider interface {
	Get(ctx context.Context, cfg engine.Config) (engine.Engine, error)
}

// Summarizer runs the text-generation fallback chain.
type Summarizer interface {
	Summarize(ctx context.Context, text string, mode summarize.Mode) (summarize.Result, error)
}

// Runner executes the processing stages for audio jobs.
type Runner struct {
	cfg        *config.Config
	store      *store.Store
	normalizer Normalizer
	engines    EngineProvider
	summarizer Summarizer
	logger     *slog.Logger
	mode       summarize.Mode
}

// RunnerOption customizes the runner.
type RunnerOption func(*Runner)

// WithMode overrides the summarization mode used for new jobs.
func WithMode(mode summarize.Mode) RunnerOption {
	return func(r *Runner) {
		r.mode = mode
	}
}

// NewRunner wires the pipeline components together.
func NewRunner(
	cfg *config.Config,
	st *store.Store,
	normalizer Normalizer,
	engines EngineProvider,
	summarizer Summarizer,
	logger *slog.Logger,
	opts ...RunnerOption,
) *Runner {
	runner := &Runner{
		cfg:        cfg,
		store:      st,
		normalizer: normalizer,
		engines:    engines,
		summarizer: summarizer,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		mode:       summarize.ModeSummarize,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run processes one input file through every stage. On stage failure the
// returned outcome names the stage and error kind; artifacts from earlier
// stages are left in place.
func (r *Runner) Run(ctx context.Context, inputPath string) (*Outcome, error) {
	jobID := uuid.New().String()
	ctx = logging.WithJob(ctx, jobID)
	outcome := &Outcome{JobID: jobID, InputPath: inputPath, Status: StatusIngested}

	jobLogger := logging.WithContext(ctx, r.logger)
	jobLogger.Info("job started", logging.String("input", inputPath))

	var recording *store.Recording
	err := r.runStage(ctx, StageOptimize, func(stageCtx context.Context) error {
		outputPath, normErr := r.normalizer.Normalize(stageCtx, inputPath, r.cfg.Paths.StorageDir)
		if normErr != nil {
			return normErr
		}
		outcome.OutputPath = outputPath

		meta := store.RecordingMeta{
			Filename: filepath.Base(inputPath),
			FilePath: outputPath,
		}
		if info, statErr := os.Stat(outputPath); statErr == nil {
			meta.FileSize = info.Size()
		}
		if seconds := r.normalizer.Duration(stageCtx, outputPath); seconds > 0 {
			meta.Duration = &seconds
		}

		created, storeErr := r.store.CreateRecording(stageCtx, meta)
		if storeErr != nil {
			return storeErr
		}
		recording = created
		outcome.RecordingID = created.ID
		return nil
	})
	if err != nil {
		return r.fail(outcome, StageOptimize, err)
	}
	outcome.Status = StatusOptimized

	var transcription transcribe.Result
	err = r.runStage(ctx, StageTranscribe, func(stageCtx context.Context) error {
		settings, resolveErr := ResolveSettings(stageCtx, r.store, r.cfg)
		if resolveErr != nil {
			return resolveErr
		}
		eng, engErr := r.engines.Get(stageCtx, settings.Engine)
		if engErr != nil {
			return engErr
		}
		result, runErr := transcribe.Run(stageCtx, eng, outcome.OutputPath)
		if runErr != nil {
			return runErr
		}
		transcription = result
		return nil
	})
	if err != nil {
		return r.fail(outcome, StageTranscribe, err)
	}
	outcome.Status = StatusTranscribed
	outcome.SegmentCount = len(transcription.Segments)

	var summary summarize.Result
	err = r.runStage(ctx, StageSummarize, func(stageCtx context.Context) error {
		result, sumErr := r.summarizer.Summarize(stageCtx, transcription.FullText, r.mode)
		if sumErr != nil {
			return sumErr
		}
		summary = result
		if result.Sentinel() {
			logging.WithContext(stageCtx, r.logger).Warn("no generation backend available, archiving without summary")
		}
		return nil
	})
	if err != nil {
		return r.fail(outcome, StageSummarize, err)
	}
	outcome.Status = StatusSummarized

	err = r.runStage(ctx, StageArchive, func(stageCtx context.Context) error {
		content := store.TranscriptContent{
			FullText: transcription.FullText,
			Segments: transcription.Segments,
		}
		if !summary.Sentinel() {
			content.Summary = summary.Summary
			content.Tags = summary.Tags
			content.Title = summary.Title
		}
		transcript, appendErr := r.store.AppendTranscript(stageCtx, recording.ID, content, true)
		if appendErr != nil {
			return appendErr
		}
		outcome.TranscriptID = transcript.ID
		outcome.Version = transcript.Version
		return r.store.MarkProcessed(stageCtx, recording.ID)
	})
	if err != nil {
		return r.fail(outcome, StageArchive, err)
	}

	outcome.Status = StatusArchived
	outcome.Summary = summary.Summary
	outcome.Title = summary.Title
	if summary.Sentinel() {
		outcome.Summary = ""
	}

	jobLogger.Info("job archived",
		logging.Int64(logging.FieldRecordingID, outcome.RecordingID),
		logging.Int("transcript_version", outcome.Version),
		logging.Int("segments", outcome.SegmentCount),
	)
	return outcome, nil
}

// Resummarize reruns the summarizer over a recording's final transcript and
// appends the result as a new final version. The prior version is retired,
// never mutated. A sentinel result appends nothing.
func (r *Runner) Resummarize(ctx context.Context, recordingID int64, mode summarize.Mode) (*store.Transcript, error) {
	ctx = logging.WithJob(ctx, uuid.New().String())

	prior, err := r.latestTranscript(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	result, err := r.summarizer.Summarize(ctx, prior.FullText, mode)
	if err != nil {
		return nil, err
	}
	if result.Sentinel() {
		return nil, services.Wrap(services.ErrBackendUnreachable, "pipeline", "resummarize", result.Summary, nil)
	}

	content := store.TranscriptContent{
		FullText: prior.FullText,
		Segments: prior.Segments,
		Summary:  result.Summary,
		Tags:     result.Tags,
		Title:    result.Title,
	}
	if mode == summarize.ModeFix && result.Refined != "" {
		content.FullText = result.Refined
		content.Summary = prior.Summary
		content.Tags = prior.Tags
		content.Title = prior.Title
	}

	transcript, err := r.store.AppendTranscript(ctx, recordingID, content, true)
	if err != nil {
		return nil, err
	}

	logging.WithContext(ctx, r.logger).Info("resummarized",
		logging.Int64(logging.FieldRecordingID, recordingID),
		logging.String("mode", string(mode)),
		logging.Int("transcript_version", transcript.Version),
	)
	return transcript, nil
}

// RunAll processes the given inputs as independent concurrent jobs bounded
// by the configured parallelism. Every job runs to completion; the first
// job error, if any, is returned alongside the per-job outcomes.
func (r *Runner) RunAll(ctx context.Context, paths []string) ([]*Outcome, error) {
	limit := r.cfg.Workflow.MaxParallelJobs
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]*Outcome, len(paths))
	group := new(errgroup.Group)
	group.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			outcome, err := r.Run(ctx, path)
			outcomes[i] = outcome
			return err
		})
	}
	err := group.Wait()
	return outcomes, err
}

func (r *Runner) latestTranscript(ctx context.Context, recordingID int64) (*store.Transcript, error) {
	final, err := r.store.FinalTranscript(ctx, recordingID)
	if err == nil {
		return final, nil
	}

	transcripts, listErr := r.store.ListTranscripts(ctx, recordingID)
	if listErr != nil {
		return nil, listErr
	}
	if len(transcripts) == 0 {
		return nil, err
	}
	return transcripts[len(transcripts)-1], nil
}

func (r *Runner) runStage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	stageCtx := logging.WithStage(ctx, string(stage))
	stageLogger := logging.WithContext(stageCtx, r.logger)

	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)
	if err := fn(stageCtx); err != nil {
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return nil
}

func (r *Runner) fail(outcome *Outcome, stage Stage, err error) (*Outcome, error) {
	outcome.Status = StatusFailed
	outcome.FailedStage = stage
	outcome.ErrorKind = services.Kind(err)
	return outcome, fmt.Errorf("stage %s: %w", stage, err)
}
