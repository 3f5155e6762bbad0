package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/gupta362/pm-agent-v2/pkg/agent"
	llmmetrics "github.com/gupta362/pm-agent-v2/pkg/agent/middleware/metrics"
	"github.com/gupta362/pm-agent-v2/pkg/config"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/metrics"
	"github.com/gupta362/pm-agent-v2/pkg/orchestrator"
	"github.com/gupta362/pm-agent-v2/pkg/persistence"
	"github.com/gupta362/pm-agent-v2/pkg/utils"
)

// EnvPassword supplies the secrets password non-interactively.
const EnvPassword = "PMCOPILOT_PASSWORD"

// app bundles everything a conversation needs for one CLI invocation.
type app struct {
	cfg       config.Config
	orch      *orchestrator.Orchestrator
	usage     *llmmetrics.UsageRecorder
	collector *metrics.Collector
	store     *persistence.Store
	server    *http.Server
	logger    *logx.Logger
}

// setupOptions toggles the optional outputs of newApp.
type setupOptions struct {
	transcript bool
	metrics    bool
}

// newApp loads config, unlocks secrets, builds the LLM client chain and the
// orchestrator, and opens the transcript log and metrics endpoint when enabled.
func newApp(opts *rootOptions, so setupOptions) (*app, error) {
	logger := logx.NewLogger("pmcopilot")
	if err := config.LoadConfig(opts.projectDir); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	orchCfg := *cfg.Orchestrator
	if opts.model != "" {
		if _, err := config.GetModelProvider(opts.model); err != nil {
			return nil, fmt.Errorf("--model: %w", err)
		}
		orchCfg.Model = opts.model
	}
	cfg.Orchestrator = &orchCfg

	if config.SecretsFileExists(opts.projectDir) {
		if err := unlockSecrets(opts.projectDir); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:       cfg,
		usage:     llmmetrics.NewUsageRecorder(),
		collector: metrics.NewCollector(),
		logger:    logger,
	}
	recorder := llmmetrics.Multi(a.usage, llmmetrics.NewPrometheusRecorder(a.collector.Registry()))

	client, err := agent.NewLLMClient(orchCfg, agent.WithRecorder(recorder), agent.WithLogger(logx.NewLogger("llm")))
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	projectContext, err := utils.LoadProjectContext(opts.projectDir)
	if err != nil {
		return nil, err
	}
	orchOpts := []orchestrator.Option{
		orchestrator.WithConfig(orchCfg),
		orchestrator.WithObserver(a.collector),
		orchestrator.WithProjectContext(projectContext),
	}
	if so.transcript && cfg.Transcript.Enabled {
		store, err := persistence.Open(config.ResolvePath(cfg.Transcript.DBPath))
		if err != nil {
			return nil, fmt.Errorf("open transcript log: %w", err)
		}
		a.store = store
		orchOpts = append(orchOpts, orchestrator.WithTurnRecorder(store))
	}

	a.orch, err = orchestrator.New(client, orchOpts...)
	if err != nil {
		a.close()
		return nil, err
	}

	if so.metrics && cfg.Metrics.Enabled {
		if err := a.serveMetrics(); err != nil {
			a.close()
			return nil, err
		}
	}
	logger.Info("🚀 Using model %s (max %d rounds per turn)", orchCfg.Model, orchCfg.MaxRounds)
	return a, nil
}

func (a *app) serveMetrics() error {
	ln, err := net.Listen("tcp", a.cfg.Metrics.ListenAddr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.collector.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler)
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped: %v", err)
		}
	}()
	a.logger.Info("📊 Metrics at http://%s/metrics", ln.Addr())
	return nil
}

// close flushes metrics and releases the transcript db and metrics server.
func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
	}
	if path := a.cfg.Metrics.TextfilePath; a.cfg.Metrics.Enabled && path != "" {
		if err := a.collector.WriteTextfile(config.ResolvePath(path)); err != nil {
			a.logger.Warn("failed to write metrics textfile: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close transcript log: %v", err)
		}
	}
}

func unlockSecrets(projectDir string) error {
	password, err := readPassword("🔐 Password for project secrets: ")
	if err != nil {
		return err
	}
	if err := config.UnlockSecrets(projectDir, password); err != nil {
		return fmt.Errorf("unlock secrets: %w", err)
	}
	return nil
}

// readPassword takes the password from PMCOPILOT_PASSWORD, else prompts on the terminal.
func readPassword(prompt string) (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("secrets file is locked: set %s or run in a terminal", EnvPassword)
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := string(raw)
	for i := range raw {
		raw[i] = 0
	}
	return password, nil
}
