// Package config provides configuration management for wikigraph.
//
// Values are layered in increasing precedence: the defaults from NewConfig,
// a YAML file (.wikigraph), a .env file and WIKIGRAPH_* environment
// variables, and finally command-line flags.
package config
