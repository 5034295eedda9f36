package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Set at build time using -ldflags.
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the resolved build information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

// Get resolves build information, falling back to the VCS stamps the Go
// toolchain embeds when ldflags were not provided.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// Short returns "<version>[-<commit>][-dirty]".
func Short() string {
	info := Get()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
	}
	if info.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// String renders the line printed by `dictation version`.
func (i Info) String() string {
	s := "dictation " + i.Version
	if i.GitCommit != "" {
		s += " (" + i.GitCommit + ")"
	}
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	if i.GoVersion != "" {
		s += fmt.Sprintf(" %s", i.GoVersion)
	}
	return s
}

// UserAgent is sent on outbound API requests.
func UserAgent() string {
	return "dictation/" + Version
}
