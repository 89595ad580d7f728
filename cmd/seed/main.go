// Command seed resets the configured database to the demo data set.
package main

import (
	"os"

	"github.com/oggyb/daily-riddle/internal/config"
	"github.com/oggyb/daily-riddle/internal/db"
	"github.com/oggyb/daily-riddle/internal/logger"
)

func main() {
	cfg := config.New()
	cfg.Log.Component = "riddle_seed"
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	var riddles, profiles int64
	database.Model(&db.Riddle{}).Count(&riddles)
	database.Model(&db.Profile{}).Count(&profiles)
	log.Info("seeding completed", "riddles", riddles, "profiles", profiles)
}
