// Package inspect serves a live view of a running engine over HTTP.
//
// Routes:
//
//	GET  /healthz              liveness check
//	GET  /metrics              Prometheus exposition of the configured gatherer
//	GET  /roots                names of mounted roots
//	GET  /roots/{name}/tree    committed fiber tree as JSON
//	GET  /roots/{name}/html    host tree rendered as HTML
//	POST /nodes/{id}/{event}   dispatch an event to a host node's handler
//	GET  /ops                  WebSocket stream of host operations
//
// Handlers that read or change the tree run on the engine's loop when one is
// configured, so they never race a render pass.
package inspect
