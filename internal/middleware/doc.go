// Package middleware provides the HTTP middleware of the API server:
// request logging in W3C extended format, Prometheus request metrics
// labelled by route template, and a per-client token bucket for the scan
// control endpoints.
package middleware
