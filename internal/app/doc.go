// Package app wires the configuration, registry, clients, and services
// together and executes the CLI commands.
package app
