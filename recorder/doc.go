// Package recorder captures microphone audio through native OS recorders.
//
// On Linux arecord (ALSA) is preferred over SoX; elsewhere only SoX is
// probed. The chosen tool writes mono 16 kHz 16-bit PCM WAV to a temporary
// file which Stop reads back and deletes.
//
// The browser fallback lives in package relay and produces the same Audio type.
package recorder
