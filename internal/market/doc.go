// Package market computes descriptive statistics over a competitive set:
// percentile position, tiered segmentation, rate clustering and per-competitor
// gaps.
//
// Every function in this package is pure. Nothing here logs, performs I/O or
// holds state between calls, so callers can run analyses concurrently.
package market
