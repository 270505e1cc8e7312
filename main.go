package main

import (
	"os"

	"github.com/go-overtime-admin/go-overtime-admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
