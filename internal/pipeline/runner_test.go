package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"memora/internal/config"
	"memora/internal/engine"
	"memora/internal/logging"
	"memora/internal/services"
	"memora/internal/store"
	"memora/internal/summarize"
	"memora/internal/testsupport"
)

type fakeNormalizer struct {
	err      error
	duration float64
	calls    atomic.Int32
}

func (f *fakeNormalizer) Normalize(_ context.Context, inputPath, outputDir string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, base+"_optimized.mp3")
	if err := os.WriteFile(outputPath, []byte("normalized audio"), 0o644); err != nil {
		return "", err
	}
	if err := os.Remove(inputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (f *fakeNormalizer) Duration(context.Context, string) float64 { return f.duration }

type fakeEngine struct {
	cfg      engine.Config
	segments []engine.Segment
	err      error
}

func (f *fakeEngine) Config() engine.Config { return f.cfg }

func (f *fakeEngine) Transcribe(context.Context, string) (engine.SegmentReader, error) {
	if f.err != nil {
		return nil, f.err
	}
	return engine.NewSliceReader(f.segments), nil
}

type fakeEngines struct {
	eng engine.Engine
	err error
}

func (f *fakeEngines) Get(_ context.Context, cfg engine.Config) (engine.Engine, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.eng, nil
}

type fakeSummarizer struct {
	result summarize.Result
	err    error

	mu    sync.Mutex
	texts []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string, _ summarize.Mode) (summarize.Result, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return summarize.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeSummarizer) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func writeInput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.TempDir, name)
	testsupport.WriteFile(t, path, []byte("raw audio bytes"))
	return path
}

func newRunner(t *testing.T, cfg *config.Config, st *store.Store, norm Normalizer, engines EngineProvider, sum Summarizer) *Runner {
	t.Helper()
	return NewRunner(cfg, st, norm, engines, sum, logging.NewNop())
}

var defaultSegments = []engine.Segment{
	{Start: 0, End: 2.5, Text: "hello there"},
	{Start: 2.5, End: 5, Text: "general meeting"},
}

func TestRunArchivesRecording(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{duration: 5}
	engines := &fakeEngines{eng: &fakeEngine{segments: defaultSegments}}
	sum := &fakeSummarizer{result: summarize.Result{
		Summary: "A short meeting.",
		Tags:    "#Meeting",
		Title:   "Meeting",
		Source:  summarize.SourceLocal,
	}}
	runner := newRunner(t, cfg, st, norm, engines, sum)

	input := writeInput(t, cfg, "meeting.wav")
	outcome, err := runner.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.Status != StatusArchived {
		t.Fatalf("status = %q, want %q", outcome.Status, StatusArchived)
	}
	if outcome.Version != 1 {
		t.Fatalf("version = %d, want 1", outcome.Version)
	}
	if !strings.HasSuffix(outcome.OutputPath, "_optimized.mp3") {
		t.Fatalf("output path = %q", outcome.OutputPath)
	}
	if _, statErr := os.Stat(input); !os.IsNotExist(statErr) {
		t.Fatal("input file should be gone after normalization")
	}

	rec, err := st.GetRecording(context.Background(), outcome.RecordingID)
	if err != nil {
		t.Fatalf("GetRecording: %v", err)
	}
	if !rec.Processed {
		t.Fatal("recording not marked processed")
	}
	if rec.Duration == nil || *rec.Duration != 5 {
		t.Fatalf("duration = %v, want 5", rec.Duration)
	}

	final, err := st.FinalTranscript(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("FinalTranscript: %v", err)
	}
	if final.FullText != "hello there general meeting" {
		t.Fatalf("full text = %q", final.FullText)
	}
	if final.Summary != "A short meeting." || final.Title != "Meeting" {
		t.Fatalf("summary = %q, title = %q", final.Summary, final.Title)
	}
	if len(final.Segments) != 2 {
		t.Fatalf("stored %d segments, want 2", len(final.Segments))
	}
	if texts := sum.seen(); len(texts) != 1 || texts[0] != "hello there general meeting" {
		t.Fatalf("summarizer saw %v", texts)
	}
}

func TestRunSentinelSummaryStillArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{}
	engines := &fakeEngines{eng: &fakeEngine{segments: defaultSegments}}
	sum := &fakeSummarizer{result: summarize.Result{
		Summary: summarize.NoEngineSummary,
		Source:  summarize.SourceNone,
	}}
	runner := newRunner(t, cfg, st, norm, engines, sum)

	outcome, err := runner.Run(context.Background(), writeInput(t, cfg, "memo.mp3"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Status != StatusArchived {
		t.Fatalf("status = %q, want %q", outcome.Status, StatusArchived)
	}
	if outcome.Summary != "" {
		t.Fatalf("outcome summary = %q, want empty", outcome.Summary)
	}

	final, err := st.FinalTranscript(context.Background(), outcome.RecordingID)
	if err != nil {
		t.Fatalf("FinalTranscript: %v", err)
	}
	if final.Summary != "" {
		t.Fatalf("persisted summary = %q, want empty", final.Summary)
	}
	if final.FullText == "" {
		t.Fatal("transcript text must persist without a summary")
	}
}

func TestRunTranscribeFailureRetainsRecording(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{}
	engines := &fakeEngines{eng: &fakeEngine{
		err: services.Wrap(services.ErrTranscription, "whisper", "transcribe", "exit status 1", nil),
	}}
	runner := newRunner(t, cfg, st, norm, engines, &fakeSummarizer{})

	outcome, err := runner.Run(context.Background(), writeInput(t, cfg, "memo.mp3"))
	if err == nil {
		t.Fatal("expected stage error")
	}
	if outcome.FailedStage != StageTranscribe {
		t.Fatalf("failed stage = %q, want %q", outcome.FailedStage, StageTranscribe)
	}
	if outcome.ErrorKind != "transcription" {
		t.Fatalf("error kind = %q", outcome.ErrorKind)
	}

	rec, getErr := st.GetRecording(context.Background(), outcome.RecordingID)
	if getErr != nil {
		t.Fatalf("recording row must survive stage failure: %v", getErr)
	}
	if rec.Processed {
		t.Fatal("failed job must not mark recording processed")
	}
	transcripts, listErr := st.ListTranscripts(context.Background(), rec.ID)
	if listErr != nil {
		t.Fatalf("ListTranscripts: %v", listErr)
	}
	if len(transcripts) != 0 {
		t.Fatalf("failed job persisted %d transcripts", len(transcripts))
	}
	if _, statErr := os.Stat(outcome.OutputPath); statErr != nil {
		t.Fatalf("optimized file must survive stage failure: %v", statErr)
	}
}

func TestRunOptimizeFailureCreatesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{err: services.Wrap(services.ErrEncode, "ffmpeg", "encode", "exit status 1", nil)}
	runner := newRunner(t, cfg, st, norm, &fakeEngines{}, &fakeSummarizer{})

	outcome, err := runner.Run(context.Background(), writeInput(t, cfg, "memo.mp3"))
	if err == nil {
		t.Fatal("expected stage error")
	}
	if outcome.FailedStage != StageOptimize || outcome.ErrorKind != "encode" {
		t.Fatalf("outcome = %+v", outcome)
	}

	recordings, listErr := st.ListRecordings(context.Background())
	if listErr != nil {
		t.Fatalf("ListRecordings: %v", listErr)
	}
	if len(recordings) != 0 {
		t.Fatalf("optimize failure persisted %d recordings", len(recordings))
	}
}

func TestResummarizeAppendsNewFinal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{}
	engines := &fakeEngines{eng: &fakeEngine{segments: defaultSegments}}
	sum := &fakeSummarizer{result: summarize.Result{Summary: "First take.", Source: summarize.SourceLocal}}
	runner := newRunner(t, cfg, st, norm, engines, sum)

	outcome, err := runner.Run(context.Background(), writeInput(t, cfg, "memo.mp3"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sum.result = summarize.Result{Summary: "Second take.", Source: summarize.SourceFallback}
	transcript, err := runner.Resummarize(context.Background(), outcome.RecordingID, summarize.ModeSummarize)
	if err != nil {
		t.Fatalf("Resummarize: %v", err)
	}
	if transcript.Version != 2 || !transcript.IsFinal {
		t.Fatalf("new version = %d final %v", transcript.Version, transcript.IsFinal)
	}
	if transcript.Summary != "Second take." {
		t.Fatalf("summary = %q", transcript.Summary)
	}
	if transcript.FullText != "hello there general meeting" {
		t.Fatalf("full text changed: %q", transcript.FullText)
	}

	all, err := st.ListTranscripts(context.Background(), outcome.RecordingID)
	if err != nil {
		t.Fatalf("ListTranscripts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("stored %d versions, want 2", len(all))
	}
	if all[0].IsFinal {
		t.Fatal("prior version must be retired")
	}
}

func TestResummarizeSentinelAppendsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{}
	engines := &fakeEngines{eng: &fakeEngine{segments: defaultSegments}}
	sum := &fakeSummarizer{result: summarize.Result{Summary: "ok", Source: summarize.SourceLocal}}
	runner := newRunner(t, cfg, st, norm, engines, sum)

	outcome, err := runner.Run(context.Background(), writeInput(t, cfg, "memo.mp3"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sum.result = summarize.Result{Summary: summarize.NoEngineSummary, Source: summarize.SourceNone}
	_, err = runner.Resummarize(context.Background(), outcome.RecordingID, summarize.ModeSummarize)
	if !errors.Is(err, services.ErrBackendUnreachable) {
		t.Fatalf("err = %v, want backend unreachable", err)
	}

	all, listErr := st.ListTranscripts(context.Background(), outcome.RecordingID)
	if listErr != nil {
		t.Fatalf("ListTranscripts: %v", listErr)
	}
	if len(all) != 1 {
		t.Fatalf("stored %d versions, want 1", len(all))
	}
}

func TestRunAllProcessesEveryInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.MaxParallelJobs = 2
	st := testsupport.MustOpenStore(t, cfg)
	norm := &fakeNormalizer{}
	engines := &fakeEngines{eng: &fakeEngine{segments: defaultSegments}}
	sum := &fakeSummarizer{result: summarize.Result{Summary: "ok", Source: summarize.SourceLocal}}
	runner := newRunner(t, cfg, st, norm, engines, sum)

	paths := []string{
		writeInput(t, cfg, "one.mp3"),
		writeInput(t, cfg, "two.mp3"),
		writeInput(t, cfg, "three.mp3"),
	}
	outcomes, err := runner.RunAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome == nil || outcome.Status != StatusArchived {
			t.Fatalf("outcome %d = %+v", i, outcome)
		}
	}

	recordings, listErr := st.ListRecordings(context.Background())
	if listErr != nil {
		t.Fatalf("ListRecordings: %v", listErr)
	}
	if len(recordings) != 3 {
		t.Fatalf("persisted %d recordings, want 3", len(recordings))
	}
}

func TestResolveSettingsOverlaysStoredValues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base, err := ResolveSettings(ctx, st, cfg)
	if err != nil {
		t.Fatalf("ResolveSettings: %v", err)
	}
	if base.Engine.ModelSize != cfg.Whisper.Model {
		t.Fatalf("model = %q, want file default %q", base.Engine.ModelSize, cfg.Whisper.Model)
	}

	for key, value := range map[string]string{
		KeyWhisperModel:  "small",
		KeyWhisperDevice: "cuda",
		KeyOllamaModel:   "llama3",
		KeyAutoDelete:    "false",
	} {
		if err := st.SetConfig(ctx, key, value); err != nil {
			t.Fatalf("SetConfig(%s): %v", key, err)
		}
	}

	resolved, err := ResolveSettings(ctx, st, cfg)
	if err != nil {
		t.Fatalf("ResolveSettings: %v", err)
	}
	if resolved.Engine.ModelSize != "small" || resolved.Engine.Device != "cuda" {
		t.Fatalf("engine config = %+v", resolved.Engine)
	}
	if resolved.Engine.ComputeType != cfg.Whisper.ComputeType {
		t.Fatalf("compute type = %q, want file default", resolved.Engine.ComputeType)
	}
	if resolved.OllamaModel != "llama3" {
		t.Fatalf("ollama model = %q", resolved.OllamaModel)
	}
	if resolved.AutoDelete {
		t.Fatal("auto delete override not applied")
	}
}
