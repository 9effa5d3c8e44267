package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/bvgastel/crashy/crashd/api"
	"github.com/bvgastel/crashy/crashd/cfg"
)

var Build string
var Version string

const (
	SIGHUP = syscall.SIGHUP
)

func init() {

	var cPath string
	var showVersion bool = false
	var showBuild bool = false

	flag.StringVar(&cPath, "config", "", "path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.BoolVar(&showBuild, "build", false, "show build")

	flag.Parse()

	if showVersion {
		fmt.Printf("Version: %s\n", Version)
		os.Exit(0)
	}

	if showBuild {
		fmt.Printf("Build: %s\n", Build)
		os.Exit(0)
	}

	if cPath != "" {
		conf, err := cfg.FromJson(cPath)
		if err != nil {
			log.WithError(err).Fatal("Error reading configuration file")
		}

		cfg.GlobalConfig = conf
		cfg.GlobalConfigPath = cPath

	} else {
		flag.PrintDefaults()
		log.Fatal("Config file is not set")
	}

	level, err := log.ParseLevel(cfg.GlobalConfig.LogLevel())
	if err == nil {
		log.WithField("level", level).
			Info("Change log level")
		log.SetLevel(level)
	} else {
		log.WithError(err).Warning("Can't setup log level")
	}
}

func handleSignals() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, SIGHUP)
	go func() {
		for s := range sig {
			log.WithField("signal", s.String()).
				Info("Catch")
		}
	}()
}

func main() {
	handleSignals()

	collector := api.GinCollectorService{}
	if err := collector.Init(); err != nil {
		log.WithError(err).Fatal("Can't init collector service")
	}
	if err := collector.Start(); err != nil {
		log.WithError(err).Fatal("Collector stopped")
	}
}
