// Package httpapi is the request dispatcher of delaystats-api.
//
// Every statistics route is served by the same generic endpoint: it parses and validates the
// query parameters into a delaystats.Filter, runs the route's Template against the store,
// maps the rows into the route's record type and writes them as a JSON array. Any failure is
// written as a delaystats.ErrorEnvelope instead.
package httpapi
