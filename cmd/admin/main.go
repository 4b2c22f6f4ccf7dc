package main

import (
	"os"

	"github.com/noah-isme/talentflow-api/cmd/admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
