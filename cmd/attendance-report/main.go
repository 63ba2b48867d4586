package main

import (
	"os"

	"github.com/cmlabs-hris/attendance-insights/cmd/attendance-report/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
