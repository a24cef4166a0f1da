// Package pricing implements the competitive rate pipeline orchestrator.
//
// The service sequences collection, market analysis and recommendation
// synthesis for one property at a time, persists recommendations as
// suggestions and owns the suggestion apply lifecycle. It depends on the
// store interfaces defined in this package; implementations live in
// repository/sqldb/.
package pricing
