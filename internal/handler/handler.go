// Package handler exposes the registry services over HTTP.
//
// Handlers bind and validate requests with the validation package, call a
// service and write JSON. Errors are returned to echo and rendered by the
// global error handler.
package handler
