// Package process runs external programs: short commands through Run and
// long-running recorders through Start, whose Handle can be terminated
// gracefully or killed outright.
package process
