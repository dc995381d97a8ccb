// Package internaldefs is the single table of exported metric names, help
// strings and histogram bucket bounds for careauth.
//
// Both the Prometheus collector and the OTel exporter read from here, so a
// renamed counter changes every scrape target at once. The package holds
// data only and imports nothing but careauth.
package internaldefs
