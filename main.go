// Package main provides the agentgw gateway and its CLI.
package main

import (
	"github.com/dotcommander/agentgw/internal/cmd"
	"github.com/dotcommander/agentgw/internal/config"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version = ""
	//nolint: gochecknoglobals
	CommitSHA = ""
)

func main() {
	cfg, cfgErr := config.Ensure()
	cmd.Execute(cmd.BuildInfo{Version: Version, CommitSHA: CommitSHA}, cfg, cfgErr)
}
