package main

import (
	"os"

	"github.com/DoyleJ11/askai-quiz-backend/internal/cli"
)

func main() {
	deps := &cli.Dependencies{Out: os.Stdout}
	if err := cli.NewRootCmd(deps).Execute(); err != nil {
		cli.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}
