// Package httputil provides shared HTTP response utilities for handlers.
//
// Handlers should use these helpers instead of writing raw
// http.ResponseWriter calls so that status bodies and error structures
// stay consistent across all endpoints.
package httputil
