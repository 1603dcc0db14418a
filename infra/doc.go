// Package infra holds the technical adapters: booking stores, the weather
// client, the MQTT status feed and the metrics exporters. These packages
// depend only on the interfaces defined under core.
package infra
