/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package model defines the seam between judges and text-generation backends.
//
// A backend only has to implement Interface: take a prompt, return the
// model's text verbatim. Remote adapters live in subpackages (openaimodel,
// claudemodel, googlemodel), provider resolves a model name to one of them,
// Func wraps an in-process function, and modeltest provides test doubles.
//
// Adapters never retry. A failed call surfaces as a *TransportError so the
// caller can decide whether to back off and try again.
package model
