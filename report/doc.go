/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders a batch.Report for people: Markdown tables for
// pull requests and terminals, a tree grouped by judge, or JSON.
package report
