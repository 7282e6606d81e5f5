// SPDX-License-Identifier: MPL-2.0

// Package depcheck verifies that the aggregate manifest declares its modules
// and their bundled third-party dependencies consistently.
//
// Verify is pure: it works on copies of the aggregate and workspace manifests
// and returns the corrected copies together with the list of corrections. The
// caller decides whether to persist them and fail.
package depcheck
