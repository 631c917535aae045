// Command main runs the database seeder for the engagement service.
package main

import (
	"context"
	"flag"
	"log"

	"engagement/internal/config"
	"engagement/internal/database"
	"engagement/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "Number of distinct users")
	novels := flag.Int("novels", defaults.Novels, "Number of novels")
	chapters := flag.Int("chapters", defaults.ChaptersPerNovel, "Chapters per novel")
	comments := flag.Int("comments", defaults.CommentsPerChapter, "Comments per chapter")
	reports := flag.Int("reports", defaults.Reports, "Reports to file")
	randomSeed := flag.Int64("seed", defaults.RandomSeed, "Random seed")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d novels x %d chapters, %d comments per chapter, clean=%v\n",
		*users, *novels, *chapters, *comments, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	opts := defaults
	opts.Users = *users
	opts.Novels = *novels
	opts.ChaptersPerNovel = *chapters
	opts.CommentsPerChapter = *comments
	opts.Reports = *reports
	opts.RandomSeed = *randomSeed

	res, err := s.Seed(context.Background(), opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d comments, %d reviews, %d likes, %d reports.\n",
		res.Comments, res.Reviews, res.Likes, res.Reports)
}
