// Package middleware holds the echo middleware shared by every route and
// the per-route guards: basic authentication, role checks and rate limits.
package middleware
