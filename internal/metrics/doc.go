// Package metrics provides the Prometheus-backed sink for the task engine's
// observations and the handler that exposes them for scraping.
package metrics
