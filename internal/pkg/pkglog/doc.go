// Package pkglog configures structured JSON logging.
//
// Every record carries service=orgjoin and, for HTTP requests, the request
// correlation id under _cID.
package pkglog
