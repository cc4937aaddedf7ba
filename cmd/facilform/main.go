package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/facilform-dev/facilform/internal/config"
	"github.com/facilform-dev/facilform/internal/logger"
	"github.com/facilform-dev/facilform/internal/router"
	"github.com/facilform-dev/facilform/internal/setup"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 30 * time.Second
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to set up dependencies", "err", err)
		return
	}
	defer deps.CancelFunc()

	server := &http.Server{
		Addr:         cfg.Public.ListenAddr,
		Handler:      router.New(deps),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	logger.Log.Info("starting facility form frontend", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil {
		logger.Log.Error("server stopped", "err", err)
	}
}
