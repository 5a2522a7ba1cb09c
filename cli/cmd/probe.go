package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/loamworks/sounder/adapter"
	redisadapter "github.com/loamworks/sounder/adapter/redis"
	"github.com/loamworks/sounder/adapter/webhook"
	"github.com/loamworks/sounder/candidate"
	"github.com/loamworks/sounder/cli/config"
	"github.com/loamworks/sounder/cli/render"
	"github.com/loamworks/sounder/log"
	"github.com/loamworks/sounder/metrics"
	"github.com/loamworks/sounder/probe"
	"github.com/loamworks/sounder/types"
)

// Exit codes for the probe command.
const (
	exitConnected   = 0
	exitExhausted   = 1
	exitConfigError = 2
)

// ProbeCommand returns the probe command.
// This is the only command that touches the network.
func ProbeCommand() *cli.Command {
	flags := specFlags()
	flags = append(flags, credentialFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "probe-id",
			Usage: "Probe run ID (default: random UUID)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Hard per-attempt handshake timeout",
			Value: types.DefaultAttemptTimeout,
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Worker count; 1 = strictly sequential, deterministic trace order",
			Value: 1,
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Attempts per second cap (0 = unlimited)",
		},
		&cli.IntFlag{
			Name:  "redirect-hops",
			Usage: "Redirect-hop budget per candidate (-1 disables redirects)",
			Value: probe.DefaultRedirectHops,
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write the JSON probe report to this path ('-' = stderr)",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Browse the finished trace in an interactive viewer",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress rendered output (exit code still reports the outcome)",
		},
		// Adapter flags
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion-event adapter: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter endpoint URL (webhook: HTTP URL, redis: redis://...)",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel override",
		},
	)

	return &cli.Command{
		Name:   "probe",
		Usage:  "Discover the working streaming endpoint shape (the only network command)",
		Flags:  flags,
		Action: probeAction,
	}
}

func probeAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	spec, err := buildSpec(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	if err := spec.Validate(); err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	candidates, err := candidate.Generate(spec)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	probeID := c.String("probe-id")
	if probeID == "" {
		probeID = uuid.New().String()
	}

	parallel := c.Int("parallel")
	if cfg.Probe.Parallel > 0 && !c.IsSet("parallel") {
		parallel = cfg.Probe.Parallel
	}
	rateLimit := c.Float64("rate")
	if cfg.Probe.Rate > 0 && !c.IsSet("rate") {
		rateLimit = cfg.Probe.Rate
	}
	hops := c.Int("redirect-hops")
	if cfg.Probe.MaxRedirectHops != nil && !c.IsSet("redirect-hops") {
		hops = *cfg.Probe.MaxRedirectHops
	}

	mode := "sequential"
	if parallel > 1 {
		mode = "parallel"
	}
	collector := metrics.NewCollector(probeID, mode)

	runner := probe.NewRunner(probe.RunnerConfig{
		ProbeID:           probeID,
		Timeout:           spec.Timeout(),
		CredentialHeaders: spec.CredentialHeaders,
		MaxRedirectHops:   hops,
		Parallel:          parallel,
		Rate:              rateLimit,
		Collector:         collector,
	})

	// Ctrl-C aborts the run; the trace collected so far is still rendered.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	trace, err := runner.Run(ctx, candidates)
	if err != nil {
		// The runner only errors on configuration problems; per-attempt
		// failures live in the trace.
		return cli.Exit(err.Error(), exitConfigError)
	}
	duration := time.Since(start)

	report := probe.BuildProbeReport(probeID, spec.BaseEndpoint, len(candidates), trace, duration, collector.Snapshot())

	publishCompletion(c, cfg, report)

	if path := c.String("report"); path != "" {
		if err := probe.WriteProbeReport(report, path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if !c.Bool("quiet") {
		renderer, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitConfigError)
		}
		if c.Bool("tui") {
			if err := renderer.RenderTraceTUI(report); err != nil {
				return cli.Exit(err.Error(), exitExhausted)
			}
		} else if err := renderer.RenderReport(report); err != nil {
			return cli.Exit(err.Error(), exitExhausted)
		}
	}

	if !trace.Succeeded() {
		return cli.Exit("", exitExhausted)
	}
	return nil
}

// publishCompletion sends the probe-completed event to the configured
// adapter. Best-effort: failures are logged and never change the outcome.
func publishCompletion(c *cli.Context, cfg *config.Config, report *probe.ProbeReport) {
	a, err := buildAdapter(c, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: adapter disabled: %v\n", err)
		return
	}
	if a == nil {
		return
	}
	defer func() { _ = a.Close() }()

	logger := log.NewLogger(report.ProbeID)
	event := &adapter.ProbeCompletedEvent{
		ContractVersion:  types.Version,
		EventType:        "probe_completed",
		ProbeID:          report.ProbeID,
		BaseEndpoint:     report.BaseEndpoint,
		Outcome:          report.Outcome,
		WinnerURL:        report.WinnerURL,
		AttemptsRecorded: report.AttemptsRecorded,
		DurationMs:       report.DurationMs,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Publish(ctx, event); err != nil {
		logger.Warn("completion publish failed", map[string]any{"error": err.Error()})
	}
}

// buildAdapter constructs the configured adapter, or nil when none is
// configured. Flags override config values.
func buildAdapter(c *cli.Context, cfg *config.Config) (adapter.Adapter, error) {
	kind := c.String("adapter")
	if kind == "" {
		kind = cfg.Adapter.Type
	}
	if kind == "" {
		return nil, nil
	}

	url := c.String("adapter-url")
	if url == "" {
		url = cfg.Adapter.URL
	}
	channel := c.String("adapter-channel")
	if channel == "" {
		channel = cfg.Adapter.Channel
	}
	retries := webhook.DefaultRetries
	if cfg.Adapter.Retries != nil {
		retries = *cfg.Adapter.Retries
	}

	switch kind {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     url,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		return redisadapter.New(redisadapter.Config{
			URL:     url,
			Channel: channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q (want webhook or redis)", kind)
	}
}
