package cmd

import (
	"fmt"
	goruntime "runtime"
	"runtime/debug"
)

const shortSHALen = 7

// BuildInfo is set through -ldflags by release builds.
type BuildInfo struct {
	Version   string
	CommitSHA string
}

func shortSHA(sha string) string {
	if len(sha) < shortSHALen {
		return ""
	}
	return sha[:shortSHALen]
}

// versionTemplate is the cobra version template: name, version, short
// commit, Go version and platform.
func versionTemplate(b BuildInfo) string {
	v := "{{.Name}} {{.Version}}"
	if sha := shortSHA(b.CommitSHA); sha != "" {
		v += " (" + sha + ")"
	}
	return v + fmt.Sprintf(" %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
}

func normalizeBuildInfo(b BuildInfo) BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if b.Version == "" {
			b.Version = "unknown"
		}
		return b
	}
	return b.withModuleInfo(info)
}

// withModuleInfo fills missing fields from the module version and the VCS
// stamp of info. Unreleased builds get a dev-<sha>[-dirty] version.
func (b BuildInfo) withModuleInfo(info *debug.BuildInfo) BuildInfo {
	vcs := map[string]string{}
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}
	rev := vcs["vcs.revision"]
	if b.CommitSHA == "" {
		b.CommitSHA = rev
	}
	if b.Version != "" {
		return b
	}

	switch v := info.Main.Version; {
	case v != "" && v != "(devel)":
		b.Version = v
	default:
		b.Version = "dev"
		if sha := shortSHA(rev); sha != "" {
			b.Version += "-" + sha
		}
		if vcs["vcs.modified"] == "true" {
			b.Version += "-dirty"
		}
	}
	return b
}
