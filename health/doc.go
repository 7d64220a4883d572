// Package health reports on the components behind the tool layer: the
// backing data sources and the response cache. Checkers produce a
// Status of healthy, degraded, or unhealthy; the Aggregator fans checks
// out concurrently and folds them into an overall status.
package health
