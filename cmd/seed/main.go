// Command seed applies the schema, loads the demo trips into MySQL and
// creates the ADMIN_EMAIL account when configured.
// Running it again refreshes trip details and leaves seat states alone.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/config"
	"github.com/iliyamo/transit-booking/internal/database"
	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/repository"
	"github.com/iliyamo/transit-booking/internal/utils"
)

func main() {
	_ = logger.Init(&logger.Config{Level: "info", ServiceName: "transit-seed", Development: true})
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if cfg.DataSource != config.DataSourceMySQL {
		log.Fatal("seed needs DATA_SOURCE=mysql")
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	store := repository.NewMySQLStore(db)
	for _, t := range repository.DemoTrips() {
		if err := store.UpsertTrip(ctx, t); err != nil {
			log.Fatal("seed trip", zap.String("trip_id", t.ID), zap.Error(err))
		}
		log.Info("seeded trip", zap.String("trip_id", t.ID), zap.String("route", t.Route.Label()), zap.Int("seats", t.Layout.Capacity()))
	}

	if cfg.AdminEmail == "" {
		return
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal("hash admin password", zap.Error(err))
	}
	created, err := repository.EnsureAdmin(ctx, repository.NewUserRepo(db), cfg.AdminEmail, "Operator", hash, time.Now().UTC())
	if err != nil {
		log.Fatal("seed admin", zap.Error(err))
	}
	log.Info("admin account", zap.String("email", cfg.AdminEmail), zap.Bool("created", created))
}
