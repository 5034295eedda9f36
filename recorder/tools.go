package recorder

import (
	"context"
	"runtime"
)

// ToolKind enumerates the native recorders we know how to drive.
type ToolKind string

const (
	// ToolALSA is arecord from alsa-utils (Linux only).
	ToolALSA ToolKind = "arecord"
	// ToolSoX is the SoX family: `sox -d` or its `rec` alias.
	ToolSoX ToolKind = "sox"
)

// ToolInfo describes one candidate recorder after probing.
type ToolInfo struct {
	Kind      ToolKind `json:"kind"`
	Command   string   `json:"command"`
	Available bool     `json:"available"`
}

// Tool adapts a ToolInfo to provider.Provider so recorders can be picked
// with a PrioritySelector.
type Tool struct {
	ToolInfo
}

func (t *Tool) Name() string                     { return string(t.Kind) }
func (t *Tool) IsAvailable(context.Context) bool { return t.Available }

// LookupFunc reports whether an executable resolves on this host.
type LookupFunc func(ctx context.Context, name string) bool

type candidate struct {
	kind     ToolKind
	commands []string
}

// candidates lists the recorders to probe on goos, in preference order.
func candidates(goos string) []candidate {
	sox := candidate{kind: ToolSoX, commands: []string{"sox", "rec"}}
	if goos == "linux" {
		return []candidate{{kind: ToolALSA, commands: []string{"arecord"}}, sox}
	}
	return []candidate{sox}
}

// Probe checks every candidate recorder for the current platform. The
// result is in preference order and is never cached.
func Probe(ctx context.Context, lookup LookupFunc) []ToolInfo {
	return probe(ctx, runtime.GOOS, lookup)
}

func probe(ctx context.Context, goos string, lookup LookupFunc) []ToolInfo {
	cands := candidates(goos)
	infos := make([]ToolInfo, 0, len(cands))
	for _, c := range cands {
		info := ToolInfo{Kind: c.kind, Command: c.commands[0]}
		for _, cmd := range c.commands {
			if lookup(ctx, cmd) {
				info.Command = cmd
				info.Available = true
				break
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// Args builds the command line requesting mono 16 kHz 16-bit PCM WAV at path.
func Args(info ToolInfo, path string) []string {
	switch info.Kind {
	case ToolALSA:
		return []string{"-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", path}
	default:
		args := []string{"-r", "16000", "-c", "1", "-b", "16", "-t", "wav", path}
		if info.Command == "sox" {
			// sox needs the default input device named explicitly; rec implies it.
			args = append([]string{"-d"}, args...)
		}
		return args
	}
}
