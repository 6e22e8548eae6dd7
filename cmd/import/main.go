package main

import (
	"context"
	"flag"
	"os"

	"github.com/apex/log"

	"claimdesk/internal/config"
	"claimdesk/internal/database"
	"claimdesk/internal/domain/dataimport"
	"claimdesk/internal/pkg/logger"
	"claimdesk/internal/server"
)

func main() {
	kindFlag := flag.String("kind", "", "what the file holds: clients, products or invoices")
	file := flag.String("file", "", "path to the CSV export")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	kind, err := dataimport.ParseKind(*kindFlag)
	if err != nil {
		flag.Usage()
		log.WithError(err).Fatal("invalid -kind")
	}
	if *file == "" {
		flag.Usage()
		log.Fatal("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.WithError(err).Fatal("open file failed")
	}
	defer f.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	if err := database.Migrate(db, server.Models()...); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	res, err := dataimport.NewService(db).Import(context.Background(), kind, f)
	if err != nil {
		log.WithError(err).Fatal("import failed")
	}
	for _, msg := range res.Messages {
		log.Debug(msg)
	}
	if res.Failed > 0 {
		os.Exit(1)
	}
}
