package main

import (
	"database/sql"
	"flag"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/logger"
	"github.com/navid-fn/listing-radar/internal/migrations"

	_ "github.com/ClickHouse/clickhouse-go/v2" // ClickHouse driver
	"github.com/pressly/goose/v3"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration")
	flag.Parse()

	cfg := configs.AppLoad()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if !cfg.ClickHouse.Enabled() {
		log.Fatal("CLICKHOUSE_HOST is not set")
	}

	db, err := sql.Open("clickhouse", cfg.ClickHouse.DSN())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("Failed to ping database")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("clickhouse"); err != nil {
		log.WithError(err).Fatal("Goose: failed to set dialect")
	}

	if *down {
		log.Info("Rolling back latest migration...")
		if err := goose.Down(db, "."); err != nil {
			log.WithError(err).Fatal("Goose rollback failed")
		}
		log.Info("Rollback completed successfully")
		return
	}

	log.Info("Running database migrations...")
	if err := goose.Up(db, "."); err != nil {
		log.WithError(err).Fatal("Goose migration failed")
	}

	log.Info("Migrations completed successfully")
}
