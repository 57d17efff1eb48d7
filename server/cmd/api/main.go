package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/listing-radar/internal/logger"
	"github.com/navid-fn/listing-radar/internal/migrations"
	"github.com/navid-fn/listing-radar/internal/store"
	"github.com/navid-fn/listing-radar/server/config"
	"github.com/navid-fn/listing-radar/server/internal/handler"
	"github.com/navid-fn/listing-radar/server/internal/repository"
	"github.com/navid-fn/listing-radar/server/internal/router"
	"github.com/navid-fn/listing-radar/server/internal/service"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before serving")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.DebugMode != "True" {
		gin.SetMode(gin.ReleaseMode)
	}

	var alertRepo repository.AlertRepository
	if cfg.ClickHouseDSN != "" {
		db, err := gorm.Open(clickhouse.Open(cfg.ClickHouseDSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		if *migrateFlag {
			sqlDB, err := db.DB()
			if err != nil {
				log.Fatalf("Failed to get sql.DB: %v", err)
			}
			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("clickhouse"); err != nil {
				log.Fatalf("Goose: failed to set dialect: %v", err)
			}
			log.Info("Running database migrations...")
			if err := goose.Up(sqlDB, "."); err != nil {
				log.Fatalf("Goose migration failed: %v", err)
			}
		}

		alertRepo = repository.NewGormAlertRepository(db)
	} else {
		log.Warn("CLICKHOUSE_HOST is not set, history endpoints are disabled")
	}

	alertStore := store.New(cfg.AlertsFile, cfg.RetentionDays, log)
	alertService := service.NewAlertsService(alertStore, alertRepo, nil)
	alertHandler := handler.NewAlertHandler(alertService, log)

	routerConfig := &router.Config{
		AlertHandler: alertHandler,
	}

	router := router.NewRouter(routerConfig)

	log.Infof("Serving alerts from %s on :%s", cfg.AlertsFile, cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
