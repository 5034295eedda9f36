// Package mqtt publishes completed transcripts to an MQTT broker as JSON so
// other tools (home automation, note takers) can consume them. It is a
// session.Sink.
package mqtt
