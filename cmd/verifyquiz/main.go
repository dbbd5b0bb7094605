package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"taskverify"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	var (
		taskID     = flag.String("task", "", "Task id to verify (required)")
		category   = flag.String("category", "", "Category hint for quest sub-tasks")
		userID     = flag.String("user", "", "User id to credit experience points to")
		dbPath     = flag.String("db", "", "Path to the sqlite database (default from config)")
		configPath = flag.String("config", "", "Path to YAML config file")
		apiKey     = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	taskverify.SetVerbose(*verbose)

	if *taskID == "" {
		log.Fatal("Task id is required. Use -task flag.")
	}

	cfg := taskverify.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = taskverify.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *apiKey != "" {
		cfg.OpenAI.APIKey = *apiKey
	}
	if cfg.OpenAI.APIKey == "" {
		log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	store, err := taskverify.OpenStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	maker := taskverify.NewQuizMaker(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	verifier := taskverify.NewVerifier(store, maker)
	verifier.SetGenerationTimeout(cfg.GenerationTimeout())

	fmt.Printf("🎯 Verifying task: %s\n", *taskID)
	fmt.Println("⏳ Generating verification questions... (this may take a moment)")
	fmt.Println()

	sess, task, err := verifier.StartAttempt(context.Background(), *taskID, *category)
	if err != nil {
		if errors.Is(err, taskverify.ErrTaskNotFound) {
			log.Fatalf("Task %q was not found in dailies or quests", *taskID)
		}
		log.Fatalf("Failed to start verification: %v", err)
	}

	fmt.Printf("📋 Task: %s\n", task.Title)
	if task.Description != "" {
		fmt.Printf("   %s\n", task.Description)
	}
	fmt.Printf("   Category: %s\n\n", task.Category)

	scanner := bufio.NewScanner(os.Stdin)
	letters := []string{"A", "B", "C", "D"}

	for !sess.Completed {
		question := sess.CurrentQuestion()
		fmt.Printf("Question %d/%d:\n", sess.Current+1, len(sess.Questions))
		fmt.Printf("%s\n\n", question.Text)

		for i, option := range question.Options {
			fmt.Printf("%s) %s\n", letters[i], option)
		}
		fmt.Println()

		var choice int
		for {
			fmt.Print("Your answer (A/B/C/D): ")
			scanner.Scan()
			answer := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			choice = strings.Index("ABCD", answer)
			if len(answer) == 1 && choice >= 0 && choice < len(question.Options) {
				break
			}
			fmt.Println("Please enter A, B, C, or D")
		}

		if err := sess.SelectAnswer(sess.Current, question.Options[choice]); err != nil {
			log.Fatalf("Failed to record answer: %v", err)
		}
		if err := sess.Advance(); err != nil {
			log.Fatalf("Failed to advance: %v", err)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("🏁 Verification complete: %.1f%%\n", sess.ScorePercent)

	awarded, total, err := verifier.SettleAttempt(*userID, sess)
	switch {
	case errors.Is(err, taskverify.ErrAuthRequired):
		fmt.Println("ℹ️  No user given (-user), so no experience points were awarded.")
	case err != nil:
		// The score stands even when the award could not be persisted
		log.Printf("Failed to settle reward: %v", err)
	case awarded:
		fmt.Printf("🏆 You earned %d experience points! Total: %d XP\n", taskverify.AwardPoints, total)
	default:
		fmt.Printf("📚 You need %.0f%% to earn experience points. Total stays at %d XP\n", taskverify.PassThreshold, total)
	}
}
