// Package artifact renders the problem brief from the accumulated conversation state.
package artifact

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/skeleton"
)

// Header is the first line of every brief.
const Header = "# Problem Brief"

//go:embed brief.tpl.md
var briefTemplate string

var tmpl = template.Must(template.New("brief").Parse(briefTemplate))

// Artifact is one rendered brief. Values are never modified after creation.
type Artifact struct {
	Content string `json:"content"`
	Turn    int    `json:"turn"`
}

// Input is everything the brief is rendered from.
type Input struct {
	Skeleton    skeleton.Skeleton
	Assumptions []assumption.Assumption
	Probes      []string // display names
	Patterns    []string // display names
	// Turn stamps the Artifact only. It is not part of the rendered text, so a
	// brief regenerated on a later turn is identical when nothing else changed.
	Turn int
}

type metricRow struct {
	Category    string
	Description string
}

type view struct {
	Skeleton    skeleton.Skeleton
	Metrics     []metricRow
	Probes      []string
	Patterns    []string
	LoadBearing []assumption.Assumption
	Other       []assumption.Assumption
}

// Render produces the brief markdown from the skeleton, assumptions and fired
// probes/patterns. in.Turn does not affect the output.
func Render(in Input) (string, error) {
	v := view{
		Skeleton: in.Skeleton,
		Probes:   sortedCopy(in.Probes),
		Patterns: sortedCopy(in.Patterns),
	}

	keys := make([]string, 0, len(in.Skeleton.SuccessMetrics))
	for k := range in.Skeleton.SuccessMetrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Metrics = append(v.Metrics, metricRow{Category: k, Description: in.Skeleton.SuccessMetrics[k]})
	}

	all := append([]assumption.Assumption(nil), in.Assumptions...)
	assumption.SortByID(all)
	for _, a := range all {
		if a.LoadBearing() {
			v.LoadBearing = append(v.LoadBearing, a)
		} else {
			v.Other = append(v.Other, a)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render problem brief: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// Generate renders in and stamps the result with in.Turn.
func Generate(in Input) (*Artifact, error) {
	content, err := Render(in)
	if err != nil {
		return nil, err
	}
	return &Artifact{Content: content, Turn: in.Turn}, nil
}

func sortedCopy(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
