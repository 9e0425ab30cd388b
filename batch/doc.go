/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package batch evaluates many cases against many judges with bounded
concurrency and aggregates the outcomes into a Report.

Every (case, judge) pair is an independent unit. A unit that fails is
recorded as a *UnitError in place of its result and never affects its
siblings:

	runner := batch.NewRunner(
		batch.WithSink(otelsink.New()),
		batch.WithRetry(retry.DefaultRetryConfig()),
	)
	report, err := runner.Run(ctx, cases, judges, 4)
	if err != nil && report == nil {
		return err // bad arguments
	}
	fmt.Printf("overall %.3f, success rate %.3f\n", report.OverallScore, report.SuccessRate)

When ctx is cancelled, units that have not started are recorded with
KindCanceled, finished results are kept and Run returns the partial report
together with ctx.Err().

CalibrateThreshold and CompareWithHuman help tune rubric thresholds against
human-labelled data.
*/
package batch
