package main

import (
	"testing"
)

func TestParseRecordingID(t *testing.T) {
	if id, err := parseRecordingID(" 42 "); err != nil || id != 42 {
		t.Fatalf("parseRecordingID = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3"} {
		if _, err := parseRecordingID(bad); err == nil {
			t.Fatalf("parseRecordingID(%q) accepted", bad)
		}
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tc := range cases {
		if got := formatSize(tc.bytes); got != tc.want {
			t.Errorf("formatSize(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	seconds := func(v float64) *float64 { return &v }
	cases := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{seconds(0), "-"},
		{seconds(42), "0:42"},
		{seconds(75), "1:15"},
		{seconds(3725), "1:02:05"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Fatalf("truncateText = %q", got)
	}
	if got := truncateText("0123456789", 4); got != "0123…" {
		t.Fatalf("truncateText = %q", got)
	}
}
