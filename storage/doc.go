// Package storage defines the blob store used for recording audio that is
// too large to keep inline in the settings database.
//
// The local sub-package implements it on the filesystem.
package storage
