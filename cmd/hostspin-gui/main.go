// Command hostspin-gui is the desktop front end of hostspin.
package main

import (
	"flag"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"example.com/hostspin/internal/config"
	"example.com/hostspin/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	log.SetHandler(cli.Default)
	cfg, err := config.Load(*configPath, false)
	if err != nil {
		log.WithError(err).Fatal("hostspin-gui")
	}
	ui.Run(cfg)
}
