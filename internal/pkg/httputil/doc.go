// Package httputil provides the JSON response and request helpers shared by
// the list manager API handlers, so every endpoint answers with the same
// envelope and status mapping.
package httputil
