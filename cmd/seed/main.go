// Seeds the database with the default deck list. Names that already exist
// are skipped, so running it twice is harmless.
package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cardfight-tracker/internal/store"
)

var defaultDecks = []struct {
	name     string
	deckType string
}{
	{"Shiranui", store.TypeStride},
	{"Messiah", store.TypeStride},
	{"Luard", store.TypeStride},
	{"Eva", store.TypeStandard},
	{"Magnolia", store.TypeStandard},
	{"Prison", store.TypeStandard},
	{"Varga", store.TypeStandard},
	{"Blangdmire", store.TypeStandard},
	{"Drajeweled", store.TypeStandard},
	{"Impauldio", store.TypeStandard},
	{"Levidras", store.TypeStandard},
}

func main() {
	log := logrus.New()

	_ = godotenv.Load()
	dbPath := getEnv("DATABASE_PATH", "./data/cardfight.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	added := 0
	for _, d := range defaultDecks {
		_, err := db.CreateDeck(ctx, d.name, d.deckType, true)
		if err != nil {
			var conflict *store.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			log.Fatalf("Failed to seed deck %q: %v", d.name, err)
		}
		added++
	}

	log.Infof("Seed complete. Added %d new deck(s).", added)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
