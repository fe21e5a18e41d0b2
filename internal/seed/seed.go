// Package seed populates a store with fake users, posts and interactions
// for local development and demos.
package seed

import (
	"context"
	"fmt"
	"strings"

	"murmur/internal/repository"
	"murmur/models"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Hasher hashes seeded passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Options controls how much data Run creates.
type Options struct {
	Users int
	Posts int
	// FollowRatio is the chance, 0 to 1, that any user follows any other.
	FollowRatio float64
	// LikeRatio is the chance that any user likes any post.
	LikeRatio float64
	// MaxComments is the most comments a single post receives.
	MaxComments int
}

// Result counts what Run wrote.
type Result struct {
	Users         []models.User
	Posts         int
	Follows       int
	Likes         int
	Comments      int
	Notifications int
}

// Seeder writes fake data through the repositories, so it works against
// every backend.
type Seeder struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	notes  repository.NotificationRepository
	hasher Hasher
	faker  *gofakeit.Faker
	log    *zap.Logger
}

// NewSeeder returns a Seeder. The same seed value produces the same data.
func NewSeeder(
	users repository.UserRepository,
	posts repository.PostRepository,
	notes repository.NotificationRepository,
	hasher Hasher,
	seed int64,
	log *zap.Logger,
) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		users:  users,
		posts:  posts,
		notes:  notes,
		hasher: hasher,
		faker:  gofakeit.New(seed),
		log:    log,
	}
}

// Run creates opts.Users users and opts.Posts posts, then follows, likes and
// comments between them with the matching notifications.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users < 1 {
		return nil, fmt.Errorf("seed needs at least one user, got %d", opts.Users)
	}

	digest, err := s.hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	res := &Result{}
	for i := 0; i < opts.Users; i++ {
		user := s.fakeUser(i, digest)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", user.Username, err)
		}
		res.Users = append(res.Users, *user)
	}
	s.log.Info("seeded users", zap.Int("count", len(res.Users)))

	for _, follower := range res.Users {
		for _, followee := range res.Users {
			if follower.ID == followee.ID || s.faker.Float64() >= opts.FollowRatio {
				continue
			}
			if err := s.users.Follow(ctx, follower.ID, followee.ID); err != nil {
				return nil, fmt.Errorf("follow: %w", err)
			}
			if err := s.notify(ctx, follower.ID, followee.ID, models.NotificationFollow, res); err != nil {
				return nil, err
			}
			res.Follows++
		}
	}

	for i := 0; i < opts.Posts; i++ {
		author := res.Users[s.faker.Number(0, len(res.Users)-1)]
		post := &models.Post{UserID: author.ID, Text: s.faker.HipsterSentence(s.faker.Number(4, 16))}
		if s.faker.Number(0, 4) == 0 {
			post.Img = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		if err := s.engage(ctx, post, res, opts); err != nil {
			return nil, err
		}
	}

	s.log.Info("seed complete",
		zap.Int("posts", res.Posts),
		zap.Int("follows", res.Follows),
		zap.Int("likes", res.Likes),
		zap.Int("comments", res.Comments),
		zap.Int("notifications", res.Notifications),
	)
	return res, nil
}

func (s *Seeder) engage(ctx context.Context, post *models.Post, res *Result, opts Options) error {
	for _, u := range res.Users {
		if s.faker.Float64() >= opts.LikeRatio {
			continue
		}
		if err := s.posts.Like(ctx, u.ID, post.ID); err != nil {
			return fmt.Errorf("like: %w", err)
		}
		if err := s.notify(ctx, u.ID, post.UserID, models.NotificationLike, res); err != nil {
			return err
		}
		res.Likes++
	}

	if opts.MaxComments <= 0 {
		return nil
	}
	for n := s.faker.Number(0, opts.MaxComments); n > 0; n-- {
		commenter := res.Users[s.faker.Number(0, len(res.Users)-1)]
		comment := &models.Comment{UserID: commenter.ID, Text: s.faker.Sentence(s.faker.Number(3, 12))}
		if err := s.posts.AddComment(ctx, post.ID, comment); err != nil {
			return fmt.Errorf("comment: %w", err)
		}
		if err := s.notify(ctx, commenter.ID, post.UserID, models.NotificationComment, res); err != nil {
			return err
		}
		res.Comments++
	}
	return nil
}

func (s *Seeder) notify(ctx context.Context, from, to string, typ models.NotificationType, res *Result) error {
	if from == to {
		return nil
	}
	if err := s.notes.Create(ctx, &models.Notification{FromID: from, ToID: to, Type: typ}); err != nil {
		return fmt.Errorf("create %s notification: %w", typ, err)
	}
	res.Notifications++
	return nil
}

// fakeUser builds user number i. The index suffix keeps usernames and
// emails unique whatever the faker returns.
func (s *Seeder) fakeUser(i int, digest string) *models.User {
	first := s.faker.FirstName()
	last := s.faker.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s%s%d", first, last[:1], i))
	return &models.User{
		Username:   handle,
		FullName:   first + " " + last,
		Email:      handle + "@" + s.faker.DomainName(),
		Password:   digest,
		Bio:        s.faker.HackerPhrase(),
		Link:       s.faker.URL(),
		ProfileImg: fmt.Sprintf("https://i.pravatar.cc/300?u=%s", handle),
	}
}
