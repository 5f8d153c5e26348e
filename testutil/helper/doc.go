// Package helper provides test doubles shared by the delaystats test suites.
//
// It contains an slog.Handler spy for capturing and validating log output, spies for the
// metrics, tracing, and contextual logging interfaces, and small builders for test data.
package helper
