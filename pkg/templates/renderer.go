// Package templates renders the prompts sent to the reasoning service.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed orchestrator/*.tpl.md
var templateFS embed.FS

// StateTemplate names an embedded template.
type StateTemplate string

const (
	// SystemPromptTemplate is the orchestrator system prompt, rendered every turn.
	SystemPromptTemplate StateTemplate = "orchestrator/system.tpl.md"
)

// ModeLine is one mode catalog entry.
type ModeLine struct {
	ID      string
	Label   string
	Purpose string
}

// CatalogLine is one probe or pattern catalog entry.
type CatalogLine struct {
	ID          string
	Name        string
	Category    string
	RootProbe   string
	Description string
}

// AssumptionLine is one assumption in the state snapshot.
type AssumptionLine struct {
	ID          string
	Claim       string
	Type        string
	Impact      string
	Confidence  string
	Status      string
	LoadBearing bool
}

// MetricLine is one success metric.
type MetricLine struct {
	Category    string
	Description string
}

// SkeletonView is the skeleton as shown to the model.
type SkeletonView struct {
	ProblemStatement string
	Stakeholders     []string
	Metrics          []MetricLine
	ProceedIf        []string
	DoNotProceedIf   []string
}

// Recommendation is a detector suggestion.
type Recommendation struct {
	ID       string
	Name     string
	Triggers []string
}

// DeferredLine is a pattern waiting on its root probe.
type DeferredLine struct {
	PatternID string
	BlockedBy string
}

// TemplateData holds everything the system prompt shows.
//
//nolint:govet // fieldalignment: grouped by prompt section
type TemplateData struct {
	Turn           int
	Phase          string
	ActiveMode     string
	ModePurpose    string
	CompletedModes []string
	ArtifactTurn   int

	Modes          []ModeLine
	ProbeCatalog   []CatalogLine
	PatternCatalog []CatalogLine

	Summary     string
	SummaryTurn int
	Skeleton    SkeletonView
	Assumptions []AssumptionLine

	ProbesFired   []string
	PatternsFired []string

	Recommended   []Recommendation
	Deferred      []DeferredLine
	Primary       string
	SuggestedMode string

	ToolDocumentation string
	ProjectContext    string
}

// Renderer handles template rendering.
type Renderer struct {
	templates map[StateTemplate]*template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[StateTemplate]*template.Template)}

	for _, name := range []StateTemplate{SystemPromptTemplate} {
		content, err := templateFS.ReadFile(string(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		tmpl, err := template.New(string(name)).Funcs(template.FuncMap{
			"join":     strings.Join,
			"contains": strings.Contains,
		}).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render renders the named template with data.
func (r *Renderer) Render(templateName StateTemplate, data *TemplateData) (string, error) {
	tmpl, exists := r.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", templateName, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}
