// SPDX-License-Identifier: MPL-2.0

// Package transform copies module source trees into the aggregate.
//
// Every entry of a module tree is classified into a FileKind by the pure
// Rules.Classify function and then handled by the matching Handler method:
// sources get their module specifiers made relative, the resource mapping file
// and README are rewritten for the aggregate, everything else is copied.
// Entries of one directory are processed concurrently; file work is bounded by
// a weighted semaphore.
package transform
