package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	v1 "github.com/infracollect/tzline/apis/v1"
	"github.com/urfave/cli/v3"
)

// Build information populated at init() from debug.ReadBuildInfo().
var (
	Version   = "unknown"
	GoVersion = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
	Modified  bool
)

func init() {
	parseBuildInfo()
}

func parseBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	Version = info.Main.Version
	GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			Modified = setting.Value == "true"
		}
	}
}

// versionInfo renders the build information printed by the version command.
func versionInfo() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "version: %s\n", Version)
	fmt.Fprintf(&sb, "go: %s\n", GoVersion)
	if Commit != "unknown" {
		if Modified {
			fmt.Fprintf(&sb, "commit: %s (dirty)\n", Commit)
		} else {
			fmt.Fprintf(&sb, "commit: %s\n", Commit)
		}
	}
	if BuildTime != "unknown" {
		fmt.Fprintf(&sb, "built: %s\n", BuildTime)
	}
	fmt.Fprintf(&sb, "commands: %s, %s\n", v1.CommandConvertTime, v1.CommandGetCurrentTime)
	return sb.String()
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: func(ctx context.Context, command *cli.Command) error {
		fmt.Print(versionInfo())
		return nil
	},
}
