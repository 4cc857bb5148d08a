package main

import (
	"os"

	"github.com/G-Research/scanload/cmd/scanload/cmd"
	"github.com/G-Research/scanload/internal/common"
)

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
