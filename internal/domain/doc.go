// Package domain defines the core types of the competitive rate intelligence
// pipeline.
//
// Types in this package are pure value objects with no behavior beyond small
// validation helpers, no database dependencies, and no HTTP concerns. They are
// the shared language between the collector, the market statistics, the
// recommendation synthesizer, the pricing service and the repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Money is decimal.Decimal, derived statistics are float64
package domain
