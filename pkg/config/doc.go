// Package config loads tilegrab run configuration.
//
// Values are layered: Default, then an optional YAML file, then TILEGRAB_*
// environment variables, then command-line flags that were set explicitly.
//
// Example file:
//
//	min_zoom: 0
//	max_zoom: 6
//	output: tiles
//	url: https://tile.openstreetmap.org/{z}/{x}/{y}.png
//	extension: png
//	batch_size: 8
//	failure_log: error.log
//	timeout: 20s
package config
