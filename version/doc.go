// Package version carries the build version of the dictation binary.
//
// Values are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/dictation/version.Version=0.3.0" ./cmd/dictation
package version
