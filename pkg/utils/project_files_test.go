package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gupta362/pm-agent-v2/pkg/config"
)

func TestInitProjectDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := InitProjectDirectory(dir); err != nil {
		t.Fatalf("InitProjectDirectory failed: %v", err)
	}

	for _, name := range []string{ContextFile, "README.md"} {
		if _, err := os.Stat(filepath.Join(dir, config.ProjectConfigDir, name)); err != nil {
			t.Errorf("%s was not created: %v", name, err)
		}
	}

	// A fresh template carries no context.
	got, err := LoadProjectContext(dir)
	if err != nil {
		t.Fatalf("LoadProjectContext failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty context from template, got %q", got)
	}
}

func TestInitProjectDirectoryKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ProjectConfigDir, ContextFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("We sell to retailers."), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := InitProjectDirectory(dir); err != nil {
		t.Fatalf("InitProjectDirectory failed: %v", err)
	}
	got, err := LoadProjectContext(dir)
	if err != nil {
		t.Fatalf("LoadProjectContext failed: %v", err)
	}
	if got != "We sell to retailers." {
		t.Errorf("existing context was overwritten, got %q", got)
	}
}

func TestLoadProjectContext(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr string
	}{
		{
			name:    "comments stripped",
			content: "# Organization Context\n\n<!-- hint -->\nKPMs are key partner manufacturers.\n",
			want:    "KPMs are key partner manufacturers.",
		},
		{
			name:    "multi-line comment",
			content: "<!--\nnot this\n-->\nUCM is the unified campaign manager.",
			want:    "UCM is the unified campaign manager.",
		},
		{
			name:    "too many characters",
			content: strings.Repeat("a", ContextCharLimit+1),
			wantErr: "character limit",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, config.ProjectConfigDir, ContextFile)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			got, err := LoadProjectContext(dir)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadProjectContextMissingFile(t *testing.T) {
	got, err := LoadProjectContext(t.TempDir())
	if err != nil || got != "" {
		t.Errorf("missing file should be empty without error, got %q, %v", got, err)
	}
}
