package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ms-turnos/internal/config"
	"ms-turnos/internal/logger"
	"ms-turnos/internal/turnos/db"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// migrate creates the schema and the seed staff account without starting
// the web service. Safe to run repeatedly.
func main() {
	log := logger.NewWithWriter(os.Stdout)
	_ = godotenv.Load()
	cfg := config.Load()

	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "store driver: sqlite or postgres")
	flagSet.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "sqlite database file")
	flagSet.StringVar(&cfg.Database.PostgresDSN, "dsn", cfg.Database.PostgresDSN, "postgres connection string")
	flagSet.StringVar(&cfg.Database.SeedUsername, "user", cfg.Database.SeedUsername, "seed staff username")
	flagSet.StringVar(&cfg.Database.SeedPassword, "password", cfg.Database.SeedPassword, "seed staff password")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bunDB, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to open store: %v", err))
	}
	defer bunDB.Close()

	store := &db.DB{Bun: bunDB}
	if err := store.CreateTablesIfAbsent(ctx); err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to create tables: %v", err))
	}
	log.LogDatabase("CREATE", "usuarios, orden_llegada", "tables ready")

	created, err := store.SeedUser(ctx, cfg.Database.SeedUsername, cfg.Database.SeedPassword)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to seed staff account: %v", err))
	}
	if created {
		log.LogDatabase("SEED", "usuarios", fmt.Sprintf("created account %s", cfg.Database.SeedUsername))
	} else {
		log.LogDatabase("SEED", "usuarios", fmt.Sprintf("account %s already present", cfg.Database.SeedUsername))
	}
}
