// Package relay captures audio in an external browser when no native
// recorder is installed.
//
// Record binds a gin server to an ephemeral loopback port, opens its capture
// page in the default browser, and waits for the page to POST the recording
// as base64 JSON to /upload. The page may POST /cancel instead. Either way
// the server is shut down once the attempt settles.
//
//	r := relay.New(relay.Config{})
//	audio, err := r.Record(ctx)
package relay
