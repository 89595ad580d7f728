package db

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seedNamespace keeps seeded ids stable across runs.
var seedNamespace = uuid.MustParse("6f1c1f3e-8a4d-4a57-9a38-5b8d1f0c2e71")

// SeedID derives a deterministic uuid for a seeded row.
func SeedID(kind string, n int) string {
	return uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%s-%d", kind, n))).String()
}

var demoRiddles = []struct {
	texts      map[string]string
	category   string
	difficulty string
	answer     string
}{
	{
		texts: map[string]string{
			"en":    "I have keys but no locks. I have space but no room. You can enter, but can't go outside. What am I?",
			"ta":    "எனக்கு சாவிகள் உண்டு, ஆனால் பூட்டுகள் இல்லை. நான் யார்?",
			"ta_en": "Enakku saavigal undu, aanaal poottugal illai. Naan yaar?",
		},
		category: "technology", difficulty: "easy", answer: "keyboard",
	},
	{
		texts: map[string]string{
			"en": "What has many keys but can't open a single lock?",
			"ta": "பல சாவிகள் இருந்தும் ஒரு பூட்டையும் திறக்க முடியாதது எது?",
		},
		category: "music", difficulty: "easy", answer: "piano",
	},
	{
		texts: map[string]string{
			"en":    "The more you take, the more you leave behind. What am I?",
			"ta_en": "Neenga edukka edukka, pinnaadi vittu poreenga. Naan yaar?",
		},
		category: "logic", difficulty: "medium", answer: "footsteps",
	},
	{
		texts:    map[string]string{"en": "What runs but never walks, has a mouth but never talks?"},
		category: "nature", difficulty: "medium", answer: "river",
	},
	{
		texts: map[string]string{
			"en": "I speak without a mouth and hear without ears. What am I?",
			"ta": "வாய் இல்லாமல் பேசுவேன், காது இல்லாமல் கேட்பேன். நான் யார்?",
		},
		category: "logic", difficulty: "hard", answer: "echo",
	},
}

var demoProfiles = []struct {
	username string
	display  string
	lang     string
}{
	{"kavya", "Kavya", "ta"},
	{"arun", "Arun", "ta_en"},
	{"meena", "Meena", "en"},
	{"rahul", "Rahul", "en"},
	{"divya", "Divya", "ta"},
	{"vikram", "Vikram", "en"},
}

// SeedTestData resets the database and populates it with demo riddles,
// profiles and follow edges.
//
// Behavior:
//  1. Clears achievements, submissions, follow edges, profiles and riddles.
//  2. Creates riddles with full or partial en / ta / ta_en variants.
//  3. Creates profiles with stable uuid ids and a small follow graph.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB) error {
	for _, table := range []string{"achievements", "submissions", "follow_edges", "profiles", "riddles"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	for i, r := range demoRiddles {
		riddle := Riddle{
			ID:              SeedID("riddle", i+1),
			Texts:           datatypes.NewJSONType(r.texts),
			Category:        r.category,
			Difficulty:      r.difficulty,
			CanonicalAnswer: r.answer,
		}
		if err := db.Create(&riddle).Error; err != nil {
			return fmt.Errorf("failed to seed riddle: %w", err)
		}
	}
	log.Printf("Seeded %d riddles.", len(demoRiddles))

	for i, p := range demoProfiles {
		profile := Profile{
			ID:                 SeedID("profile", i+1),
			Username:           p.username,
			DisplayName:        p.display,
			LanguagePreference: p.lang,
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Printf("Seeded %d profiles.", len(demoProfiles))

	// every user follows the next two, counters kept in sync
	n := len(demoProfiles)
	for i := 1; i <= n; i++ {
		for _, step := range []int{1, 2} {
			edge := FollowEdge{FollowerID: SeedID("profile", i), FollowingID: SeedID("profile", (i-1+step)%n+1)}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return fmt.Errorf("failed to seed follow edge: %w", err)
			}
		}
		if err := db.Model(&Profile{}).Where("id = ?", SeedID("profile", i)).
			Update("following_count", 2).Error; err != nil {
			return fmt.Errorf("failed to seed following count: %w", err)
		}
	}

	return nil
}
