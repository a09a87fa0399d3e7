package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/store"
	"github.com/jstittsworth/courtside/pkg/config"
	"github.com/jstittsworth/courtside/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(&store.Document{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}

	// The dotted-path queries filter on provider ids inside the JSONB blob.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING gin(data jsonb_path_ops)",
		"CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	if err := db.Exec("DROP TABLE IF EXISTS documents CASCADE").Error; err != nil {
		return fmt.Errorf("failed to drop documents table: %w", err)
	}
	return nil
}

func seedData(db *database.DB) error {
	docs := store.NewGormStore(db)
	players := store.NewPlayerStore(docs)
	ctx := context.Background()

	// A few well-known players with pre-resolved provider ids so a fresh
	// environment has something to aggregate immediately.
	seed := []nba.Player{
		{
			PlayerID:    "lebron-james",
			DisplayName: "LeBron James",
			ProviderIDs: map[nba.Source]string{
				nba.SourceNBAStats: "2544",
				nba.SourceBBallRef: "j/jamesle01",
			},
		},
		{
			PlayerID:    "stephen-curry",
			DisplayName: "Stephen Curry",
			ProviderIDs: map[nba.Source]string{
				nba.SourceNBAStats: "201939",
				nba.SourceBBallRef: "c/curryst01",
			},
		},
		{
			PlayerID:    "nikola-jokic",
			DisplayName: "Nikola Jokic",
			ProviderIDs: map[nba.Source]string{
				nba.SourceNBAStats: "203999",
				nba.SourceBBallRef: "j/jokicni01",
			},
		},
	}

	for i := range seed {
		if err := players.Save(ctx, &seed[i]); err != nil {
			return fmt.Errorf("failed to seed player %s: %w", seed[i].PlayerID, err)
		}
	}

	logrus.Infof("Seeded %d players", len(seed))
	return nil
}
