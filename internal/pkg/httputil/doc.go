// Package httputil provides shared HTTP response helpers for handlers.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter
// calls so that error bodies, status mapping and error logging stay
// consistent across endpoints.
package httputil
