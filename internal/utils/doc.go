// Package utils exposes reusable helpers consumed by multiple commands.
//
// ConfigurationLoader layers the embedded defaults, configuration files and
// GITPUBLISH_* environment variables through Viper. LoggerFactory builds the
// zap loggers used for diagnostics and for console command events, optionally
// mirrored into a rotated log file.
package utils
