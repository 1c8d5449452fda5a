// Package pkgerror is the error type handed to the HTTP edge.
//
// An Error carries the message shown to the caller, a Type that decides whether
// the cause may be exposed, and a Code that maps to an HTTP status. Domain
// packages keep their own error types and convert at the usecase boundary.
package pkgerror
