// Package handler implements HTTP request handlers.
//
// This package provides HTTP endpoints for:
// - /health: health check endpoint
// - /metrics: Prometheus metrics
// - /shows: start tracking a show by Trakt id
// - /shows/:id: HTML page of a show and its related shows
// - /shows/:id/related: related shows as JSON
// - /shows/:id/related/refresh: trigger a background refresh
// - /shows/:id/related/stream: server-sent events following the related shows
//
// All handlers extract context from requests and pass to services.
package handler
