// Package bootstrap runs the dictation command-line tasks with a uniform
// lifecycle: validated config, initialized logger, start and stop hooks,
// and cancellation on SIGINT/SIGTERM.
package bootstrap
