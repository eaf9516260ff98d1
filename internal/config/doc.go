// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to the worker's settings while keeping configuration details
// separate from the task engine.
package config
