// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives an aggregation run.
//
// The phases run strictly in order and each one's output is the next one's
// precondition: discovery, dependency verification, source transformation,
// fixture aggregation and manifest persistence. The aggregate manifest is
// loaded once, threaded through the phases and written once at the end; the
// only earlier writes are the corrections made by dependency verification,
// which always end the run with a drift error.
package pipeline
