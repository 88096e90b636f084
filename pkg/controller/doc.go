// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Sets the CORS headers for the configured origin and answers OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//   - WithRecover: Converts handler panics into a logged 500 response.
//   - WithBodyLimit: Caps the size of request bodies.
//
// Provided helpers:
//   - RegisterPprof: Registers net/http/pprof handlers on a ServeMux.
package controller
