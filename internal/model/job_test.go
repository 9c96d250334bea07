package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	now := time.Now()
	urls := []string{"https://youtube.com/watch?v=a", "https://youtu.be/b"}
	job := NewJob("job-1", JobSpec{URLs: urls, Quality: Quality480}, now)

	if job.Status != JobStatusStarting {
		t.Errorf("Expected status starting, got %s", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("Expected progress 0, got %d", job.Progress)
	}
	if job.Current != MessageInitializing {
		t.Errorf("Expected current %q, got %q", MessageInitializing, job.Current)
	}
	if job.Total != 2 {
		t.Errorf("Expected total 2, got %d", job.Total)
	}
	if job.Errors == nil || len(job.Errors) != 0 {
		t.Errorf("Expected empty non-nil errors, got %#v", job.Errors)
	}
	if !job.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt %v, got %v", now, job.CreatedAt)
	}

	urls[0] = "mutated"
	if job.URLs[0] == "mutated" {
		t.Error("NewJob must copy the URL slice")
	}
}

func TestJob_Clone(t *testing.T) {
	finished := time.Now()
	job := Job{
		ID:         "job-1",
		Errors:     []string{"first"},
		URLs:       []string{"u1"},
		FinishedAt: &finished,
	}

	clone := job.Clone()
	clone.Errors[0] = "changed"
	clone.URLs[0] = "changed"
	*clone.FinishedAt = finished.Add(time.Hour)

	if job.Errors[0] != "first" {
		t.Error("Clone shares the errors slice")
	}
	if job.URLs[0] != "u1" {
		t.Error("Clone shares the urls slice")
	}
	if !job.FinishedAt.Equal(finished) {
		t.Error("Clone shares the finished timestamp")
	}
}

func TestJob_HasArchive(t *testing.T) {
	tests := []struct {
		name     string
		job      Job
		expected bool
	}{
		{"completed with path", Job{Status: JobStatusCompleted, ArchivePath: "/tmp/a.zip"}, true},
		{"completed without path", Job{Status: JobStatusCompleted}, false},
		{"running with path", Job{Status: JobStatusRunning, ArchivePath: "/tmp/a.zip"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.job.HasArchive(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSummaryMessage(t *testing.T) {
	if got := SummaryMessage(1, 2); got != "Completed! 1/2 downloaded" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestShortFilename(t *testing.T) {
	long := strings.Repeat("é", 80)
	got := ShortFilename(long)
	if len([]rune(got)) != MaxMessageFilenameLength {
		t.Errorf("expected %d runes, got %d", MaxMessageFilenameLength, len([]rune(got)))
	}
	if ShortFilename(" clip.mp4 ") != "clip.mp4" {
		t.Error("expected surrounding whitespace to be trimmed")
	}
}

func TestOverallProgress(t *testing.T) {
	tests := []struct {
		completed, total, expected int
	}{
		{0, 3, 0},
		{1, 3, 30},
		{2, 3, 60},
		{3, 3, 90},
		{1, 2, 45},
		{5, 3, 90},
		{1, 0, 0},
		{2, 7, 25},
	}

	for _, test := range tests {
		got := OverallProgress(test.completed, test.total)
		if got != test.expected {
			t.Errorf("OverallProgress(%d, %d) = %d, expected %d", test.completed, test.total, got, test.expected)
		}
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		raw      string
		expected Quality
		wantErr  bool
	}{
		{"720", Quality720, false},
		{"1080p", Quality1080, false},
		{" BEST ", QualityBest, false},
		{"", DefaultQuality, false},
		{"4k", "", true},
	}

	for _, test := range tests {
		got, err := ParseQuality(test.raw, DefaultQuality)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidQuality) {
				t.Errorf("ParseQuality(%q) expected ErrInvalidQuality, got %v", test.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQuality(%q) unexpected error: %v", test.raw, err)
		}
		if got != test.expected {
			t.Errorf("ParseQuality(%q) = %s, expected %s", test.raw, got, test.expected)
		}
	}
}

func TestQuality_FormatSelector(t *testing.T) {
	if QualityBest.FormatSelector() != "best" {
		t.Errorf("unexpected selector %q", QualityBest.FormatSelector())
	}
	if Quality480.FormatSelector() != "best[height<=480]" {
		t.Errorf("unexpected selector %q", Quality480.FormatSelector())
	}
}
