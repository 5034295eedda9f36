// Package logger provides structured logging for dictation using zerolog.
//
// Logs go to stderr by default so that transcripts printed on stdout can be
// piped. Each package asks for a component logger:
//
//	log := logger.Get(logger.ComponentRecorder)
//	log.Info("recording started", logger.Fields("tool", "arecord", "pid", 4242))
package logger
