package main

import (
	"os"

	"github.com/yungbote/neurobridge-backend/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
