package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/config"
)

const (
	// ContextFile holds organization context appended to the system prompt.
	ContextFile = "CONTEXT.md"

	// ContextTokenLimit caps the context file (2000 tokens ~ 8000 chars).
	ContextTokenLimit = 2000
	// ContextCharLimit is checked before tokenizing.
	ContextCharLimit = 8000
)

const contextTemplate = `# Organization Context

<!-- Describe your organization so the co-pilot asks sharper questions. -->
<!-- Examples: business model, customer types, key teams, internal acronyms. -->
<!-- Maximum 2,000 tokens (≈8,000 characters). Comments are ignored. -->
`

const readmeTemplate = `# .pmcopilot Directory

- **config.json**: model and orchestrator settings
- **CONTEXT.md**: organization context added to every conversation
- **secrets.json.enc**: API keys encrypted with your password (` + "`pmcopilot secrets set`" + `)
- **transcripts.db**: write-only log of every turn (` + "`pmcopilot history`" + `)
`

var commentRE = regexp.MustCompile(`(?s)<!--.*?-->`)

// InitProjectDirectory creates .pmcopilot with a context template and README.
// Existing files are left alone.
func InitProjectDirectory(projectDir string) error {
	dir := filepath.Join(projectDir, config.ProjectConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	files := map[string]string{
		ContextFile: contextTemplate,
		"README.md": readmeTemplate,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec // user-editable docs
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
	}
	return nil
}

// LoadProjectContext returns the organization context with comments and the
// template heading removed. A missing or template-only file yields "".
// An unreadable or oversized file is an error.
func LoadProjectContext(projectDir string) (string, error) {
	path := filepath.Join(projectDir, config.ProjectConfigDir, ContextFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w (please check file permissions)", ContextFile, err)
	}
	if len(raw) > ContextCharLimit {
		return "", fmt.Errorf("%s exceeds character limit of %d (current: %d)", ContextFile, ContextCharLimit, len(raw))
	}

	text := commentRE.ReplaceAllString(string(raw), "")
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "# Organization Context"))
	if text == "" {
		return "", nil
	}
	if n := CountTokensSimple(text); n > ContextTokenLimit {
		return "", fmt.Errorf("%s exceeds token limit of %d (current: %d)", ContextFile, ContextTokenLimit, n)
	}
	return text, nil
}
