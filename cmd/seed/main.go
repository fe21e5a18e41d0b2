// Command main seeds the configured store with fake data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"murmur/internal/auth"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/repository/mongostore"
	"murmur/internal/seed"

	"go.uber.org/zap"
)

func main() {
	numUsers := flag.Int("users", 30, "Number of users to create")
	numPosts := flag.Int("posts", 120, "Number of posts to create")
	followRatio := flag.Float64("follow-ratio", 0.2, "Chance that a user follows another")
	likeRatio := flag.Float64("like-ratio", 0.15, "Chance that a user likes a post")
	maxComments := flag.Int("max-comments", 3, "Most comments per post")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var (
		users repository.UserRepository
		posts repository.PostRepository
		notes repository.NotificationRepository
	)
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(ctx) }()
		users, posts, notes = mongostore.NewUserStore(db), mongostore.NewPostStore(db), mongostore.NewNotificationStore(db)
	default:
		db, err := database.Connect(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		users, posts, notes = repository.NewUserRepository(db), repository.NewPostRepository(db), repository.NewNotificationRepository(db)
	}

	s := seed.NewSeeder(users, posts, notes, auth.NewPasswordHasher(auth.DefaultCost), *seedValue, logger)
	res, err := s.Run(ctx, seed.Options{
		Users:       *numUsers,
		Posts:       *numPosts,
		FollowRatio: *followRatio,
		LikeRatio:   *likeRatio,
		MaxComments: *maxComments,
	})
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	logger.Info("Seeding done",
		zap.String("sample_username", res.Users[0].Username),
		zap.String("password", seed.DefaultPassword),
	)
}
