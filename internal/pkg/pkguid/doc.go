// Package pkguid generates identifiers.
//
// Conversions get snowflake IDs so that they sort by start time; correlation
// and event IDs are UUIDs.
package pkguid
