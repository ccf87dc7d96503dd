package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/forumwalk/pkg/forum"
)

const (
	statusRunning        = "running"
	statusSuccess        = "success"
	statusPartialSuccess = "partial_success"
	statusFailed         = "failed"
)

// Summary describes one run.
type Summary struct {
	Status        string             `json:"status"`
	Error         string             `json:"error,omitempty"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       time.Time          `json:"end_time"`
	Duration      time.Duration      `json:"duration"`
	Username      string             `json:"username"`
	LoginOK       bool               `json:"login_ok"`
	LoginError    string             `json:"login_error,omitempty"`
	BrowseEnabled bool               `json:"browse_enabled"`
	Connect       []forum.ConnectRow `json:"connect,omitempty"`

	TopicsFound     int `json:"topics_found"`
	TopicsVisited   int `json:"topics_visited"`
	TopicsSatisfied int `json:"topics_satisfied"`
	TopicsFailed    int `json:"topics_failed"`

	NotifyError string `json:"notify_error,omitempty"`
}

// ArtifactWriter writes run summaries to a directory.
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a writer for outputDir.
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{outputDir: outputDir}
}

// WriteAll writes run.json and summary.md.
func (w *ArtifactWriter) WriteAll(summary *Summary) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := w.WriteJSON(summary); err != nil {
		return err
	}
	return w.WriteMarkdown(summary)
}

// WriteJSON writes the summary as indented JSON.
func (w *ArtifactWriter) WriteJSON(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.outputDir, "run.json"), data, 0600); err != nil {
		return fmt.Errorf("failed to write run JSON: %w", err)
	}
	return nil
}

// WriteMarkdown writes a human-readable summary.
func (w *ArtifactWriter) WriteMarkdown(summary *Summary) error {
	var md strings.Builder

	md.WriteString("# forumwalk run\n\n")
	fmt.Fprintf(&md, "**Status:** %s\n\n", summary.Status)
	if summary.Error != "" {
		fmt.Fprintf(&md, "**Error:** %s\n\n", summary.Error)
	}
	fmt.Fprintf(&md, "**User:** %s\n\n", summary.Username)
	fmt.Fprintf(&md, "**Duration:** %s\n\n", summary.Duration.Round(time.Second))

	md.WriteString("## Login\n\n")
	if summary.LoginOK {
		md.WriteString("Logged in.\n\n")
	} else {
		fmt.Fprintf(&md, "Login failed: %s\n\n", summary.LoginError)
	}

	if len(summary.Connect) > 0 {
		md.WriteString("## Connect\n\n")
		md.WriteString("| 项目 | 当前 | 要求 |\n|---|---|---|\n")
		for _, row := range summary.Connect {
			fmt.Fprintf(&md, "| %s | %s | %s |\n", row.Project, row.Current, row.Requirement)
		}
		md.WriteString("\n")
	}

	if summary.BrowseEnabled {
		md.WriteString("## Topics\n\n")
		fmt.Fprintf(&md, "- Found: %d\n", summary.TopicsFound)
		fmt.Fprintf(&md, "- Visited: %d\n", summary.TopicsVisited)
		fmt.Fprintf(&md, "- Reached page target: %d\n", summary.TopicsSatisfied)
		fmt.Fprintf(&md, "- Failed: %d\n", summary.TopicsFailed)
		md.WriteString("\n")
	}

	if summary.NotifyError != "" {
		fmt.Fprintf(&md, "## Notifications\n\n%s\n", summary.NotifyError)
	}

	if err := os.WriteFile(filepath.Join(w.outputDir, "summary.md"), []byte(md.String()), 0600); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}
	return nil
}
