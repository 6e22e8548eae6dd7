package main

import (
	"context"

	"github.com/apex/log"

	"claimdesk/internal/config"
	"claimdesk/internal/database"
	"claimdesk/internal/pkg/logger"
	"claimdesk/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}

	svc := server.NewServices(cfg, db, nil)
	res, err := svc.Claims.RecomputeAll(context.Background())
	if err != nil {
		log.WithError(err).Fatal("alert sweep failed")
	}

	log.WithFields(log.Fields{
		"checked":     res.Checked,
		"with_alerts": res.WithAlerts,
		"alerts":      res.Alerts,
		"failed":      res.Failed,
	}).Info("alert sweep completed")
}
