// Package cli implements the previsione-bandi command line.
//
// Configuration is resolved from defaults, an optional YAML file, a .env file, BANDI_* environment
// variables and finally the command-line flags. Run failures are reported on standard output as a
// single "❌ Errore:" line and, unless strict mode is enabled, do not change the exit status.
package cli
