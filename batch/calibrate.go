/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"errors"
	"math"
)

// Sample is a judge score paired with a human verdict.
type Sample struct {
	Score float64 `json:"score"`
	// Label is true when a human judged the answer acceptable.
	Label bool `json:"human_label"`
}

// DefaultThreshold is returned by CalibrateThreshold when no candidate
// reaches the target precision.
const DefaultThreshold = 0.5

// calibrationGrid is 0.10, 0.15, ..., 0.95.
func calibrationGrid() []float64 {
	grid := make([]float64, 0, 18)
	for i := 0; i < 18; i++ {
		grid = append(grid, float64(10+5*i)/100)
	}
	return grid
}

// CalibrateThreshold grid-searches a pass threshold over 0.10, 0.15, ...,
// 0.95. At each candidate a sample is predicted positive when its score is
// at least the candidate, and precision is TP / (TP + FP) (0 when nothing is
// predicted positive). It returns the candidate with the highest precision
// that meets targetPrecision, preferring the lowest such candidate on ties.
// When none qualifies it returns (DefaultThreshold, 0).
//
// The search is O(grid size × len(samples)).
func CalibrateThreshold(samples []Sample, targetPrecision float64) (threshold, precision float64) {
	threshold = DefaultThreshold
	for _, candidate := range calibrationGrid() {
		var tp, fp int
		for _, s := range samples {
			if s.Score < candidate {
				continue
			}
			if s.Label {
				tp++
			} else {
				fp++
			}
		}
		if tp+fp == 0 {
			continue
		}
		p := float64(tp) / float64(tp+fp)
		if p >= targetPrecision && p > precision {
			threshold, precision = candidate, p
		}
	}
	return threshold, precision
}

// Agreement compares judge scores with human scores for the same cases.
type Agreement struct {
	// Correlation is the Pearson correlation coefficient, NaN when either
	// series is constant.
	Correlation float64 `json:"correlation"`
	// AgreementRate is the fraction of cases where judge and human agree on
	// pass/fail at the given threshold.
	AgreementRate float64 `json:"agreement_rate"`
	HumanMean     float64 `json:"human_mean"`
	JudgeMean     float64 `json:"judge_mean"`
}

// DefaultAgreementThreshold is the pass mark commonly used with CompareWithHuman.
const DefaultAgreementThreshold = 0.7

// CompareWithHuman measures how well judged tracks human. Both slices must
// be non-empty and of equal length, index i describing the same case.
func CompareWithHuman(human, judged []float64, passThreshold float64) (Agreement, error) {
	if len(human) == 0 {
		return Agreement{}, errors.New("no scores to compare")
	}
	if len(human) != len(judged) {
		return Agreement{}, errors.New("human and judge score counts differ")
	}

	var agree int
	for i := range human {
		if (human[i] >= passThreshold) == (judged[i] >= passThreshold) {
			agree++
		}
	}
	return Agreement{
		Correlation:   pearson(human, judged),
		AgreementRate: float64(agree) / float64(len(human)),
		HumanMean:     mean(human),
		JudgeMean:     mean(judged),
	}, nil
}

func pearson(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}
