package main

import (
	"os"

	subscoutcmder "github.com/echoplexco/subscout/cmd/subscout"
)

func main() {
	cmd := subscoutcmder.NewSubscoutCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
