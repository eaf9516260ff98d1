// Package api exposes the worker over HTTP: task submission, the health
// probe, and the request plumbing shared by both. Handlers translate HTTP
// concerns into task engine operations and never touch the queue directly.
package api
