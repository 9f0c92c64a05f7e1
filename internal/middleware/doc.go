// Package middleware provides HTTP middleware for the control server:
// W3C-format request logging, Prometheus request metrics, and gzip
// compression of JSON responses.
package middleware
