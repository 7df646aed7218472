package main

import (
	"fmt"
	"os"

	"github.com/OkinawaYT/Michishirube2026/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
