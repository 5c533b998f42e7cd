// Package cmd provides the command-line interface for templatize.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--config, --type, ...)
//  2. TEMPLATIZE_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (TEMPLATIZE_LOG_LEVEL, ...)
//  4. Configuration file (.templatize.yml) in the current directory
package cmd
