/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command geval scores a CSV dataset of LLM answers against a YAML suite of
// rubrics, using one LLM judge per rubric, and prints a report.
//
// Configuration is read from the environment:
//
//	GEVAL_DATASET=cases.csv GEVAL_RUBRICS=rubrics.yaml \
//	GEVAL_MODEL=gpt-4o-mini GEVAL_BASE_URL=http://localhost:4000 geval
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/geval/batch"
	"chainguard.dev/geval/dataset"
	"chainguard.dev/geval/judge"
	"chainguard.dev/geval/metrics"
	"chainguard.dev/geval/model"
	"chainguard.dev/geval/model/provider"
	"chainguard.dev/geval/report"
	"chainguard.dev/geval/retry"
	"chainguard.dev/geval/sink"
	"chainguard.dev/geval/sink/otelsink"
	"chainguard.dev/geval/sink/promsink"
	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	Model   string `env:"GEVAL_MODEL,default=gpt-4o-mini"`
	BaseURL string `env:"GEVAL_BASE_URL"`
	APIKey  string `env:"GEVAL_API_KEY"`

	Dataset string `env:"GEVAL_DATASET,required"`
	Rubrics string `env:"GEVAL_RUBRICS,required"`

	MaxConcurrency int    `env:"GEVAL_MAX_CONCURRENCY,default=4"`
	Retries        int    `env:"GEVAL_RETRIES,default=3"`
	Format         string `env:"GEVAL_FORMAT,default=markdown"`
	LogLevel       string `env:"GEVAL_LOG_LEVEL,default=info"`

	// Language is the reason language for rubrics that do not set one.
	Language string `env:"GEVAL_LANGUAGE"`

	// LowScoreCutoff and DisagreementThreshold control the extra Markdown
	// sections listing weak results and cases the judges disagree on.
	LowScoreCutoff        float64 `env:"GEVAL_LOW_SCORE_CUTOFF,default=0.6"`
	DisagreementThreshold float64 `env:"GEVAL_DISAGREEMENT_THRESHOLD,default=0.3"`

	// MinSuccessRate makes the command exit non-zero when fewer cases pass.
	MinSuccessRate float64 `env:"GEVAL_MIN_SUCCESS_RATE,default=0"`

	// MetricsPort serves Prometheus metrics while the run is in progress.
	// Zero disables the endpoint.
	MetricsPort int `env:"GEVAL_METRICS_PORT,default=0"`

	// EnableTracing exports the per-evaluation spans.
	EnableTracing bool `env:"GEVAL_ENABLE_TRACING,default=false"`

	ProjectID string `env:"GOOGLE_CLOUD_PROJECT"`
	Region    string `env:"GOOGLE_CLOUD_REGION"`
}

// Exit codes.
const (
	exitOK = 0
	// exitBelowThreshold means the run finished but fewer cases passed than
	// GEVAL_MIN_SUCCESS_RATE requires.
	exitBelowThreshold = 1
	// exitError means the run could not be configured or did not finish.
	exitError = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := realMain(ctx, envconfig.OsLookuper(), os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// realMain runs the CLI and returns its exit code. Every deferred shutdown
// (span export, metrics server) has completed by the time it returns.
func realMain(ctx context.Context, env envconfig.Lookuper, stdout, stderr io.Writer) int {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: env}); err != nil {
		clog.ErrorContextf(ctx, "processing config: %v", err)
		return exitError
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		clog.ErrorContextf(ctx, "invalid GEVAL_LOG_LEVEL %q: %v", cfg.LogLevel, err)
		return exitError
	}
	ctx = clog.WithLogger(ctx, clog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if cfg.EnableTracing {
		defer httpmetrics.SetupTracer(ctx)()
	}

	reg := prometheus.NewRegistry()
	if cfg.MetricsPort > 0 {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				clog.WarnContextf(ctx, "metrics server stopped: %v", err)
			}
		}()
		defer srv.Close()
	}

	ok, err := run(ctx, cfg, reg, stdout)
	switch {
	case err != nil:
		clog.ErrorContextf(ctx, "%v", err)
		return exitError
	case !ok:
		clog.WarnContextf(ctx, "success rate is below GEVAL_MIN_SUCCESS_RATE=%g", cfg.MinSuccessRate)
		return exitBelowThreshold
	default:
		return exitOK
	}
}

// run evaluates the configured dataset and writes the report to w. It
// reports false when the success rate is below cfg.MinSuccessRate.
func run(ctx context.Context, cfg config, reg prometheus.Registerer, w io.Writer) (bool, error) {
	log := clog.FromContext(ctx)

	cases, err := dataset.LoadCSV(cfg.Dataset)
	if err != nil {
		return false, err
	}

	f, err := os.Open(cfg.Rubrics)
	if err != nil {
		return false, fmt.Errorf("opening rubric suite: %w", err)
	}
	defer f.Close()
	suite, err := judge.LoadSuite(f)
	if err != nil {
		return false, fmt.Errorf("rubric suite %s: %w", cfg.Rubrics, err)
	}

	judges, err := buildJudges(ctx, cfg, suite)
	if err != nil {
		return false, err
	}

	rc := retry.DefaultRetryConfig()
	rc.MaxRetries = cfg.Retries
	md := map[string]string{"dataset": cfg.Dataset}
	runner := batch.NewRunner(
		batch.WithSink(sink.Multi(otelsink.New(), promsink.New(reg))),
		batch.WithRetry(rc),
		batch.WithMetadata(md),
	)

	log.With("cases", len(cases), "judges", len(judges)).Info("Starting evaluation run")
	rep, err := runner.Run(ctx, cases, judges, cfg.MaxConcurrency)
	if err != nil {
		if rep != nil {
			// Interrupted: still show what finished.
			if werr := write(w, cfg, rep); werr != nil {
				log.Warnf("Failed to write partial report: %v", werr)
			}
		}
		return false, fmt.Errorf("running evaluation: %w", err)
	}
	log.With("overall_score", rep.OverallScore, "success_rate", rep.SuccessRate, "errors", rep.Errors()).
		Info("Evaluation run complete")

	if err := write(w, cfg, rep); err != nil {
		return false, err
	}
	return rep.SuccessRate >= cfg.MinSuccessRate, nil
}

// buildJudges creates one judge per suite entry. Entries without a model use
// cfg.Model and entries without a language use cfg.Language. Adapters are shared between entries naming the same model.
func buildJudges(ctx context.Context, cfg config, suite []judge.SuiteEntry) ([]*judge.Judge, error) {
	pcfg := provider.Config{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		ProjectID: cfg.ProjectID,
		Region:    cfg.Region,
		Metrics:   metrics.NewGenAI(metrics.DefaultMeterName),
	}

	models := make(map[string]model.Interface)
	judges := make([]*judge.Judge, 0, len(suite))
	for _, entry := range suite {
		if entry.Language == "" {
			entry.Language = cfg.Language
		}
		r, err := entry.Rubric()
		if err != nil {
			return nil, err
		}
		name := entry.Model
		if name == "" {
			name = cfg.Model
		}
		m, ok := models[name]
		if !ok {
			if m, err = provider.New(ctx, name, pcfg); err != nil {
				return nil, fmt.Errorf("rubric %q: creating model %s: %w", entry.Name, name, err)
			}
			models[name] = m
		}
		j, err := judge.New(r, m)
		if err != nil {
			return nil, err
		}
		judges = append(judges, j)
	}
	return judges, nil
}

func write(w io.Writer, cfg config, rep *batch.Report) error {
	switch cfg.Format {
	case "markdown":
		out, err := report.Markdown(rep,
			report.WithLowScores(cfg.LowScoreCutoff),
			report.WithDisagreements(cfg.DisagreementThreshold))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case "tree":
		out, _ := report.Tree(rep)
		_, err := io.WriteString(w, out)
		return err
	case "json":
		return report.JSON(w, rep)
	default:
		return fmt.Errorf("unknown GEVAL_FORMAT %q (want markdown, tree or json)", cfg.Format)
	}
}
