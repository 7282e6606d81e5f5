// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* file and environment helpers, Monorepo builds an on-disk
// workspace (marker file, workspace manifest, scoped modules and an aggregate
// package) for pipeline tests.
package testutil
