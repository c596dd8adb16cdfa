package main

import (
	"github.com/emrgen/lexicon/internal/config"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	cfg.LogLevel = logrus.DebugLevel.String()
	config.SetupLogging(cfg)

	err := server.Start(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
}
