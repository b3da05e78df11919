// Package app provides application initialization and lifecycle management.
//
// The App type wires all dependencies together and manages:
// - Store selection (bolt or SQLite)
// - Change notification (in-process, optionally relayed through Redis)
// - Service creation
// - HTTP server lifecycle
// - Graceful shutdown
//
// The Orchestrator periodically refreshes the related shows of every
// tracked show.
package app
