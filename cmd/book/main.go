package main

import (
	"os"

	appconfig "github.com/wolfman30/padel-booking/internal/config"
)

func main() {
	if err := newRootCmd(appconfig.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}
