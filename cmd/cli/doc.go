// Package cli constructs the gitpublish command-line interface: the Cobra
// command tree, the Viper configuration loader seeded from the embedded
// default_config.yaml, and the zap loggers handed to every command.
package cli
