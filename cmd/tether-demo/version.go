package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildInfo is the identity the version command prints. Release builds
// inject version, commit and date through ldflags; a plain go install
// leaves them at their defaults and fill completes them from the
// toolchain's embedded VCS stamp instead.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
	Module  string
}

func resolveBuildInfo() buildInfo {
	bi := buildInfo{Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		bi.fill(info)
	}
	return bi
}

// fill completes fields the linker did not set from info.
func (bi *buildInfo) fill(info *debug.BuildInfo) {
	bi.Module = info.Main.Path

	var rev, stamp string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			stamp = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if bi.Commit == "none" && rev != "" {
		bi.Commit = rev
		if modified {
			bi.Commit += "-dirty"
		}
	}
	if bi.Date == "unknown" && stamp != "" {
		bi.Date = stamp
	}
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the tether demo server.`,
		Run: func(cmd *cobra.Command, args []string) {
			bi := resolveBuildInfo()
			if short {
				fmt.Println(bi.Version)
				return
			}

			printBanner()
			fmt.Printf("Version:    %s\n", bi.Version)
			fmt.Printf("Commit:     %s\n", bi.Commit)
			fmt.Printf("Built:      %s\n", bi.Date)
			if bi.Module != "" {
				fmt.Printf("Module:     %s\n", bi.Module)
			}
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print version number only")

	return cmd
}
