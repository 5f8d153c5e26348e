// Package delaystats provides the core abstractions and types for querying aggregated
// public-transit delay statistics.
//
// This package is dialect-free: it declares what a query looks like, not how a specific
// database renders it. Engines such as postgresengine translate the types in this package
// into SQL.
//
// The delay statistics support filtering of observations based on:
//   - An exact calendar date
//   - A time range (lower bound exclusive, upper bound inclusive)
//   - Prime time (weekday morning and evening peak windows)
//   - A derived line code combined with a calendar date
//
// Key types:
//   - Filter: The sum type describing which observations a query covers
//   - Template: A declarative description of one endpoint's query (table, fields, grouping, filter kind)
//   - Row: One positionally typed result row
//   - LineDelay, StationDelay, StationInfo, Incident: The records returned to callers
//   - ErrorEnvelope: The uniform failure shape
//
// Common usage pattern:
//
//	filter, err := delaystats.TimeRange(lower, upper)
//	if err != nil {
//		// handle validation error
//	}
//
//	rows, err := store.Query(ctx, delaystats.StationDelayTemplate(delaystats.FilterTimeRange), filter)
//	if err != nil {
//		envelope := delaystats.NormalizeError(err)
//		// respond with envelope
//	}
//
//	records := delaystats.MapRows(rows, delaystats.StationDelayFromRow)
package delaystats
