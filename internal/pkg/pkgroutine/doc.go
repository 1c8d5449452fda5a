// Package pkgroutine runs background tasks, such as data quality reporting,
// outside the request path without losing their errors or panics.
package pkgroutine
