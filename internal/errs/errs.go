// Package errs defines the error shapes returned to callers of the registry.
//
// Every failure a caller can act on (bad input, missing entity, duplicate tax
// id, postal directory trouble) is an *HTTPError carrying a stable machine
// code, a human message, the HTTP status it maps to and, for validation,
// the list of offending fields.
package errs
