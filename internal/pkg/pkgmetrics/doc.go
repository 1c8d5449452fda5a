// Package pkgmetrics exposes conversion metrics in the Prometheus format.
//
// Metrics live on a private registry so tests and multiple app instances never
// collide on the global default registry.
package pkgmetrics
