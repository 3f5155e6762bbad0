package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llmerrors"
	llmmetrics "github.com/gupta362/pm-agent-v2/pkg/agent/middleware/metrics"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/orchestrator"
	"github.com/gupta362/pm-agent-v2/pkg/session"
)

// DefaultBriefFile is where /brief writes the problem brief.
const DefaultBriefFile = "problem_brief.md"

const chatHelp = `Commands:
  /status              show phase, mode, assumptions and skeleton progress
  /brief [path]        save the latest problem brief (default problem_brief.md)
  /answer 1,3 <text>   answer only the listed questions
  /log [component]     show recent log lines (orchestrator, llm, ...)
  /reset               start a new conversation
  /quit                exit`

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive problem-framing conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts, setupOptions{transcript: true, metrics: true})
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			r := &repl{
				turns:       a.orch,
				state:       session.New(),
				in:          cmd.InOrStdin(),
				out:         cmd.OutOrStdout(),
				interactive: term.IsTerminal(int(os.Stdin.Fd())),
				usage:       a.usage,
				baseDir:     opts.projectDir,
			}
			return r.run(ctx)
		},
	}
}

// turnRunner is the part of the orchestrator the REPL drives.
type turnRunner interface {
	RunTurn(ctx context.Context, st *session.State, userMessage string) (string, error)
}

// repl reads user lines, dispatches slash commands and runs turns.
type repl struct {
	turns       turnRunner
	state       *session.State
	in          io.Reader
	out         io.Writer
	interactive bool
	usage       *llmmetrics.UsageRecorder
	baseDir     string
}

func (r *repl) run(ctx context.Context) error {
	if r.interactive {
		fmt.Fprintln(r.out, "🧭 PM co-pilot. Describe the problem or idea you're working on.")
		fmt.Fprintln(r.out, "   Type /help for commands.")
	}
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if r.interactive {
			fmt.Fprint(r.out, "\n> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := r.handle(ctx, line)
		if err != nil {
			return err
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// handle processes one input line. Only cancellation is returned as an error;
// turn failures are reported and the conversation continues.
func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, r.send(ctx, line)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/status":
		r.printStatus()
	case "/brief":
		r.saveBrief(rest)
	case "/log":
		r.printLog(rest)
	case "/reset":
		r.state.Reset()
		fmt.Fprintf(r.out, "🔄 New conversation (%s)\n", r.state.ID)
	case "/answer":
		selected, msg, err := parseAnswer(rest)
		if err != nil {
			fmt.Fprintf(r.out, "⚠️  %v\n", err)
			return false, nil
		}
		return false, r.send(ctx, session.SelectivePrefix(selected, r.state.PendingQuestions, msg))
	default:
		fmt.Fprintf(r.out, "⚠️  Unknown command %s\n%s\n", cmd, chatHelp)
	}
	return false, nil
}

func (r *repl) send(ctx context.Context, msg string) error {
	reply, err := r.turns.RunTurn(ctx, r.state, msg)
	switch {
	case err == nil:
		fmt.Fprintf(r.out, "\n%s\n", reply)
	case errors.Is(err, orchestrator.ErrRoutingExhausted):
		fmt.Fprintf(r.out, "\n%s\n", reply)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, orchestrator.ErrServiceUnavailable):
		hint := "please try again"
		switch {
		case llmerrors.Is(err, llmerrors.ErrorTypeRateLimit):
			hint = "rate limited, wait a moment and resend"
		case llmerrors.Is(err, llmerrors.ErrorTypeAuth):
			hint = "check your API key"
		}
		fmt.Fprintf(r.out, "⚠️  The reasoning service is unavailable (%s). Your message was kept.\n", hint)
	default:
		fmt.Fprintf(r.out, "⚠️  %v\n", err)
	}
	if r.state.LatestArtifact != nil && err == nil && r.state.LatestArtifact.Turn == r.state.TurnCount {
		fmt.Fprintln(r.out, "📄 Problem brief ready. Save it with /brief.")
	}
	return nil
}

func (r *repl) printStatus() {
	sb := r.state.Sidebar()
	fmt.Fprintf(r.out, "Session %s, turn %d\n", sb.SessionID, sb.Turn)
	if sb.ModeTitle != "" {
		fmt.Fprintf(r.out, "Phase: %s (%s)\n", sb.Phase, sb.ModeTitle)
	} else {
		fmt.Fprintf(r.out, "Phase: %s\n", sb.Phase)
	}
	fmt.Fprintf(r.out, "Skeleton: %d/%d filled, %d stakeholders\n", sb.SkeletonFilled, sb.SkeletonTotal, sb.Stakeholders)
	if sb.ProblemStatement != "" {
		fmt.Fprintf(r.out, "Problem: %s\n", sb.ProblemStatement)
	}
	if len(sb.ProbesFired) > 0 {
		fmt.Fprintf(r.out, "Probes: %s\n", strings.Join(sb.ProbesFired, "; "))
	}
	if len(sb.PatternsFired) > 0 {
		fmt.Fprintf(r.out, "Patterns: %s\n", strings.Join(sb.PatternsFired, "; "))
	}
	if len(sb.Assumptions) > 0 {
		fmt.Fprintln(r.out, "Assumptions:")
		for _, a := range sb.Assumptions {
			fmt.Fprintf(r.out, "  %s %-4s [%s/%s/%s] %s\n", markerIcon(a.Marker), a.ID, a.Type, a.Impact, a.Confidence, a.Claim)
		}
	}
	for _, q := range sb.PendingQuestions {
		fmt.Fprintf(r.out, "Open %s: %s\n", q.Label(), q.Title)
	}
	if sb.ArtifactReady {
		fmt.Fprintf(r.out, "Brief: generated at turn %d\n", sb.ArtifactTurn)
	}
	if r.usage != nil {
		for _, u := range r.usage.All() {
			fmt.Fprintf(r.out, "LLM %s: %d calls (%d failed), %d tokens, $%.4f\n",
				u.Model, u.RequestCount, u.FailedCount, u.TotalTokens, u.TotalCost)
		}
	}
}

// recentLogLines caps /log output.
const recentLogLines = 20

func (r *repl) printLog(component string) {
	entries := logx.GetRecentLogEntries(component)
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No log entries yet.")
		return
	}
	if len(entries) > recentLogLines {
		entries = entries[len(entries)-recentLogLines:]
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%s [%s] %s: %s\n", e.Timestamp, e.AgentID, e.Level, e.Message)
	}
}

func (r *repl) saveBrief(path string) {
	if r.state.LatestArtifact == nil {
		fmt.Fprintln(r.out, "⚠️  No problem brief yet. Ask for one when the problem is framed.")
		return
	}
	if path == "" {
		path = DefaultBriefFile
	}
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	if err := os.WriteFile(path, []byte(r.state.LatestArtifact.Content), 0o644); err != nil { //nolint:gosec // user document
		fmt.Fprintf(r.out, "⚠️  Failed to save brief: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "💾 Saved problem brief to %s\n", path)
}

func markerIcon(m session.Marker) string {
	switch m {
	case session.MarkerLoadBearing:
		return "🔴"
	case session.MarkerHighEvidence:
		return "🟡"
	default:
		return "⚪"
	}
}

// parseAnswer splits "1,3 text" into question numbers and the message.
func parseAnswer(arg string) ([]int, string, error) {
	list, msg, _ := strings.Cut(arg, " ")
	msg = strings.TrimSpace(msg)
	if list == "" || msg == "" {
		return nil, "", errors.New("usage: /answer 1,3 <your answer>")
	}
	var selected []int
	for _, part := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, "", fmt.Errorf("invalid question number %q", part)
		}
		selected = append(selected, n)
	}
	return selected, msg, nil
}
