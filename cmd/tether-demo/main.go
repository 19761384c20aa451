package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌┬┐┬ ┬┌─┐┬─┐
   │ ├┤  │ ├─┤├┤ ├┬┘
   ┴ └─┘ ┴ ┴ ┴└─┘┴└─
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "tether-demo",
		Short: "Demo server for shared state over live views",
		Long: `tether-demo serves live views bound to shared state.

Every connected browser mounts the same views against one
process-wide state container: a dispatch from any session
re-renders all of them. Useful for poking at selectors,
filters and binding lifecycles over real sockets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the tether ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
