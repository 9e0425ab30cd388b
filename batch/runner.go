/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"chainguard.dev/geval/judge"
	"chainguard.dev/geval/model"
	"chainguard.dev/geval/retry"
	"chainguard.dev/geval/sink"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Runner evaluates cases against judges. A Runner is safe for concurrent use.
type Runner struct {
	sink     sink.Interface
	retry    retry.RetryConfig
	metadata map[string]string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink publishes every finished result to s. Publish failures are
// logged and otherwise ignored.
func WithSink(s sink.Interface) Option {
	return func(r *Runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithRetry retries units that fail with a transport or parse error.
// Validation failures are never retried. The default is no retry.
func WithRetry(cfg retry.RetryConfig) Option {
	return func(r *Runner) { r.retry = cfg }
}

// WithMetadata adds key/value pairs to every published record.
func WithMetadata(md map[string]string) Option {
	return func(r *Runner) { r.metadata = maps.Clone(md) }
}

// NewRunner returns a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{sink: sink.Nop}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type unit struct {
	caseID string
	c      judge.Case
	j      *judge.Judge
}

type unitResult struct {
	caseID  string
	judge   string
	outcome Outcome
}

// Run evaluates the full cross product of cases and judges with at most
// maxConcurrency units in flight. Cases without an ID are named "case-N"
// after their 1-based position.
//
// Run fails without evaluating anything when maxConcurrency is below 1, when
// case IDs or judge names repeat, or when the retry configuration is invalid.
// Otherwise it always returns a complete Report; the error is ctx.Err() if
// the batch was cancelled.
func (r *Runner) Run(ctx context.Context, cases []judge.Case, judges []*judge.Judge, maxConcurrency int) (*Report, error) {
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("max concurrency must be at least 1, got %d", maxConcurrency)
	}
	if err := r.retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	judgeNames := make([]string, 0, len(judges))
	seenJudges := make(map[string]struct{}, len(judges))
	for i, j := range judges {
		if j == nil {
			return nil, fmt.Errorf("judge %d is nil", i+1)
		}
		if _, ok := seenJudges[j.Name()]; ok {
			return nil, fmt.Errorf("duplicate judge name %q", j.Name())
		}
		seenJudges[j.Name()] = struct{}{}
		judgeNames = append(judgeNames, j.Name())
	}

	caseIDs := make([]string, 0, len(cases))
	byID := make(map[string]judge.Case, len(cases))
	for i, c := range cases {
		if c.ID == "" {
			c.ID = "case-" + strconv.Itoa(i+1)
		}
		if _, ok := byID[c.ID]; ok {
			return nil, fmt.Errorf("duplicate case ID %q", c.ID)
		}
		byID[c.ID] = c
		caseIDs = append(caseIDs, c.ID)
	}

	log := clog.FromContext(ctx).With("cases", len(caseIDs)).With("judges", len(judgeNames))
	log.With("max_concurrency", maxConcurrency).Info("Starting batch evaluation")

	units := make([]unit, 0, len(caseIDs)*len(judges))
	for _, id := range caseIDs {
		for _, j := range judges {
			units = append(units, unit{caseID: id, c: byID[id], j: j})
		}
	}

	// The collector owns the aggregate; units only send to it.
	done := make(chan unitResult, len(units))
	agg := newAggregator(ctx, caseIDs, judgeNames, byID)
	collected := make(chan *Report, 1)
	go func() {
		for ur := range done {
			agg.add(ur)
		}
		collected <- agg.report()
	}()

	sem := semaphore.NewWeighted(int64(maxConcurrency))
	var g errgroup.Group
	for i, u := range units {
		if err := sem.Acquire(ctx, 1); err != nil {
			for _, rest := range units[i:] {
				done <- canceled(rest, err)
			}
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			done <- r.runUnit(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	close(done)
	report := <-collected

	log.With("overall_score", report.OverallScore).
		With("success_rate", report.SuccessRate).
		With("errors", report.Errors()).
		Info("Batch evaluation complete")
	return report, ctx.Err()
}

func canceled(u unit, err error) unitResult {
	return unitResult{
		caseID: u.caseID,
		judge:  u.j.Name(),
		outcome: Outcome{Err: &UnitError{
			Kind:    KindCanceled,
			Message: "not started: " + err.Error(),
			Err:     err,
		}},
	}
}

func (r *Runner) runUnit(ctx context.Context, u unit) (ur unitResult) {
	log := clog.FromContext(ctx).With("case", u.caseID).With("judge", u.j.Name())
	ur = unitResult{caseID: u.caseID, judge: u.j.Name()}

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("Evaluation panicked: %v", p)
			ur.outcome = Outcome{Err: &UnitError{Kind: KindInternal, Message: fmt.Sprint("panic: ", p)}}
		}
	}()

	if err := ctx.Err(); err != nil {
		return canceled(u, err)
	}

	started := time.Now()
	res, err := retry.RetryWithBackoff(ctx, r.retry, "evaluate "+u.j.Name(), retryable, func() (judge.Result, error) {
		return u.j.Evaluate(ctx, u.c)
	})
	finished := time.Now()
	if err != nil {
		ur.outcome = Outcome{Err: classify(err)}
		return ur
	}
	ur.outcome = Outcome{Result: &res}

	rec := sink.NewRecord(u.c, res, u.j.Rubric().Language(), r.metadata)
	rec.Started, rec.Finished = started, finished
	if err := r.sink.Publish(ctx, rec); err != nil {
		log.Warnf("Failed to publish evaluation: %v", err)
	}
	return ur
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perr *judge.ParseError
	return model.IsTransport(err) || errors.As(err, &perr)
}

func classify(err error) *UnitError {
	var (
		verr *judge.ValidationError
		perr *judge.ParseError
	)
	kind := KindInternal
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		kind = KindCanceled
	case errors.As(err, &verr):
		kind = KindValidation
	case model.IsTransport(err):
		kind = KindTransport
	case errors.As(err, &perr):
		kind = KindParse
	}
	return &UnitError{Kind: kind, Message: err.Error(), Err: err}
}

// aggregator folds unit results into a Report. It is owned by a single
// goroutine.
type aggregator struct {
	ctx       context.Context
	out       *Report
	remaining map[string]int
	scoreSum  float64
	scoreN    int
	passed    int
}

func newAggregator(ctx context.Context, caseIDs, judgeNames []string, cases map[string]judge.Case) *aggregator {
	a := &aggregator{
		ctx: ctx,
		out: &Report{
			Results:    make(map[string]map[string]Outcome, len(caseIDs)),
			Cases:      cases,
			CaseIDs:    caseIDs,
			JudgeNames: judgeNames,
			CasePassed: make(map[string]bool, len(caseIDs)),
		},
		remaining: make(map[string]int, len(caseIDs)),
	}
	for _, id := range caseIDs {
		a.out.Results[id] = make(map[string]Outcome, len(judgeNames))
		// A case without judges has nothing that could pass it.
		a.out.CasePassed[id] = len(judgeNames) > 0
		a.remaining[id] = len(judgeNames)
	}
	return a
}

func (a *aggregator) add(ur unitResult) {
	a.out.Results[ur.caseID][ur.judge] = ur.outcome
	if res := ur.outcome.Result; res != nil {
		a.scoreSum += res.Score
		a.scoreN++
	}
	if !ur.outcome.Passed() {
		a.out.CasePassed[ur.caseID] = false
	}

	a.remaining[ur.caseID]--
	if a.remaining[ur.caseID] > 0 {
		return
	}
	passed := a.out.CasePassed[ur.caseID]
	if passed {
		a.passed++
	}
	clog.FromContext(a.ctx).With("case", ur.caseID).With("passed", passed).Debug("Case complete")
}

func (a *aggregator) report() *Report {
	r := a.out
	if a.scoreN > 0 {
		r.OverallScore = a.scoreSum / float64(a.scoreN)
	}
	if n := len(r.CaseIDs); n > 0 {
		r.SuccessRate = float64(a.passed) / float64(n)
	}
	return r
}
