// Package version exposes the build version of the binary, either injected
// at build time or recovered from the VCS info Go embeds.
package version

import "runtime/debug"

// Version can be set at build time:
// go build -ldflags "-X github.com/jhalonen/kaiku/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision the binary was built from, with a -dirty
// suffix when the working tree had local changes. Empty when no build info
// is available.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision, modified := "", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) < 7 {
		return revision
	}
	if modified {
		return revision[:7] + "-dirty"
	}
	return revision[:7]
}()

// VersionOrHash prefers the injected Version and falls back to Hash.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()
