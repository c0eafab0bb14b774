package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"memora/internal/pipeline"
)

func parseRecordingID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid recording id %q", arg)
	}
	return id, nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	value := float64(bytes)
	suffixes := []string{"KiB", "MiB", "GiB", "TiB"}
	for _, suffix := range suffixes {
		value /= unit
		if value < unit || suffix == suffixes[len(suffixes)-1] {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}

func formatDuration(seconds *float64) string {
	if seconds == nil || *seconds <= 0 {
		return "-"
	}
	total := int(*seconds + 0.5)
	minutes := total / 60
	remainder := total % 60
	if minutes >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", minutes/60, minutes%60, remainder)
	}
	return fmt.Sprintf("%d:%02d", minutes, remainder)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func truncateText(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "…"
}

func printOutcomes(out io.Writer, outcomes []*pipeline.Outcome) {
	for _, outcome := range outcomes {
		if outcome == nil {
			continue
		}
		name := filepath.Base(outcome.InputPath)
		if outcome.Failed() {
			fmt.Fprintf(out, "FAILED   %s  stage=%s kind=%s\n", name, outcome.FailedStage, outcome.ErrorKind)
			continue
		}
		fmt.Fprintf(out, "archived %s  recording=%d version=%d segments=%d\n",
			name, outcome.RecordingID, outcome.Version, outcome.SegmentCount)
		if outcome.Title != "" {
			fmt.Fprintf(out, "         title: %s\n", outcome.Title)
		}
		if outcome.Summary != "" {
			fmt.Fprintf(out, "         summary: %s\n", truncateText(outcome.Summary, 200))
		}
	}
}
