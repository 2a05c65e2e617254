package main

import (
	"log"
	"os"

	"htadmin/internal/account"
	"htadmin/internal/changelog"
	"htadmin/internal/config"
	"htadmin/internal/logger"
	"htadmin/internal/policy"
	"htadmin/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("HTADMIN_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	if addr := os.Getenv("HTADMIN_LISTEN"); addr != "" {
		cfg.ListenAddr = addr
	}

	if err := logger.Init(cfg.LogDir); err != nil {
		log.Fatal(err)
	}
	defer logger.Close()

	var changes *changelog.Store
	if cfg.UseDatabase {
		changes, err = changelog.Open(cfg.DatabaseFile)
		if err != nil {
			log.Fatal(err)
		}
		defer func() { _ = changes.Close() }()
	}

	pol := policy.New(cfg.AdminGroup)
	accounts, err := account.NewService(cfg, pol, changes)
	if err != nil {
		log.Fatal(err)
	}
	srv, err := server.New(cfg, pol, accounts)
	if err != nil {
		log.Fatal(err)
	}

	logger.Info("htadmind listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
