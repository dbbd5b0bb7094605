package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"taskverify"

	"github.com/google/uuid"
)

// seedFile is the JSON shape accepted by -file.
type seedFile struct {
	Dailies []taskverify.DailyTask `json:"dailies"`
	Quests  []taskverify.Quest     `json:"quests"`
}

func main() {
	var (
		dbPath  = flag.String("db", "./taskverify.db", "Path to the sqlite database")
		file    = flag.String("file", "", "JSON file with dailies and quests (default: built-in samples)")
		verbose = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	taskverify.SetVerbose(*verbose)

	store, err := taskverify.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	seed := sampleSeed()
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read seed file: %v", err)
		}
		seed = seedFile{}
		if err := json.Unmarshal(data, &seed); err != nil {
			log.Fatalf("Failed to parse seed file: %v", err)
		}
	}

	now := time.Now()
	created := 0

	for _, d := range seed.Dailies {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if d.Multiplier == 0 {
			d.Multiplier = 1
		}
		if err := store.CreateDaily(&d); err != nil {
			log.Printf("Skipping daily %q: %v", d.Title, err)
			continue
		}
		taskverify.VerboseLog("Created daily %s (%s)", d.ID, d.Title)
		created++
	}

	for _, q := range seed.Quests {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		for i := range q.SelectedTasks {
			if q.SelectedTasks[i].ID == "" {
				q.SelectedTasks[i].ID = uuid.NewString()
			}
		}
		if err := store.CreateQuest(&q); err != nil {
			log.Printf("Skipping quest %q: %v", q.Title, err)
			continue
		}
		taskverify.VerboseLog("Created quest %s (%s)", q.ID, q.Title)
		created++
	}

	fmt.Printf("Seeded %d tasks into %s\n", created, *dbPath)
}

func sampleSeed() seedFile {
	return seedFile{
		Dailies: []taskverify.DailyTask{
			{Title: "Drink Water", Description: "Drink at least 2 liters of water", Category: "Health", XP: 10},
			{Title: "Morning Workout", Description: "3 sets of 15 push-ups and a 20 minute run", Category: "Workout", XP: 25},
			{Title: "Read 20 Pages", Description: "Read 20 pages of a non-fiction book", Category: "Learning", XP: 15},
		},
		Quests: []taskverify.Quest{
			{
				Title:      "Spring Cleaning",
				Difficulty: "medium",
				XP:         100,
				SelectedTasks: []taskverify.QuestSubtask{
					{Description: "Declutter the desk"},
					{Description: "Clean the windows"},
					{Description: "Sort the wardrobe"},
				},
			},
		},
	}
}
