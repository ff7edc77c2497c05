// Package internaldefs holds the shared metric name and bucket definitions
// consumed by the exporter packages. It exists so every exporter publishes
// identical names for the same metric.
package internaldefs
