package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"murmur/internal/testutil"
	"murmur/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		FullName: username + " example",
		Email:    username + "@example.com",
		Password: "digest",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepository_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		mockBehavior func()
		run          func() error
		expectedErr  error
	}{
		{
			name: "GetByID Not Found",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("missing", 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			run: func() error {
				_, err := repo.GetByID(ctx, "missing")
				return err
			},
			expectedErr: ErrNotFound,
		},
		{
			name: "GetByUsername Miss Returns Nil",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("nobody", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))
			},
			run: func() error {
				user, err := repo.GetByUsername(ctx, "nobody")
				if user != nil {
					return errors.New("expected nil user")
				}
				return err
			},
		},
		{
			name: "Create Unique Violation",
			mockBehavior: func() {
				mock.ExpectBegin().
					WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`))
			},
			run: func() error {
				return repo.Create(ctx, &models.User{Username: "amy", Email: "amy@x.io", FullName: "Amy", Password: "d"})
			},
			expectedErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			err := tt.run()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	amy := createUser(t, repo, "amy")
	assert.NotEmpty(t, amy.ID)
	assert.Equal(t, []string{}, amy.Followers)

	byID, err := repo.GetByID(ctx, amy.ID)
	require.NoError(t, err)
	assert.Equal(t, "amy", byID.Username)
	assert.Empty(t, byID.Following)

	byName, err := repo.GetByUsername(ctx, "amy")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, amy.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, "amy@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	createUser(t, repo, "amy")

	err := repo.Create(context.Background(), &models.User{
		Username: "amy", FullName: "Other", Email: "other@example.com", Password: "d",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_FollowUnfollow(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	amy := createUser(t, repo, "amy")
	bob := createUser(t, repo, "bob")

	require.NoError(t, repo.Follow(ctx, amy.ID, bob.ID))
	require.NoError(t, repo.Follow(ctx, amy.ID, bob.ID), "follow is idempotent")

	gotAmy, err := repo.GetByID(ctx, amy.ID)
	require.NoError(t, err)
	gotBob, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, gotAmy.Following)
	assert.Empty(t, gotAmy.Followers)
	assert.Equal(t, []string{amy.ID}, gotBob.Followers)

	require.NoError(t, repo.Unfollow(ctx, amy.ID, bob.ID))
	gotAmy, err = repo.GetByID(ctx, amy.ID)
	require.NoError(t, err)
	gotBob, err = repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, gotAmy.Following)
	assert.Empty(t, gotBob.Followers)
}

func TestUserRepository_Update(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	amy := createUser(t, repo, "amy")
	createUser(t, repo, "bob")

	amy.Bio = "hello"
	amy.FullName = "Amy Pond"
	require.NoError(t, repo.Update(ctx, amy))

	got, err := repo.GetByID(ctx, amy.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Bio)
	assert.Equal(t, "Amy Pond", got.FullName)

	amy.Username = "bob"
	assert.ErrorIs(t, repo.Update(ctx, amy), ErrDuplicate)

	ghost := &models.User{ID: "ghost", Username: "ghost", Email: "ghost@example.com"}
	assert.ErrorIs(t, repo.Update(ctx, ghost), ErrNotFound)
}

func TestUserRepository_SampleAndGetByIDs(t *testing.T) {
	repo := NewUserRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()
	amy := createUser(t, repo, "amy")
	bob := createUser(t, repo, "bob")
	cat := createUser(t, repo, "cat")

	sample, err := repo.Sample(ctx, amy.ID, 10)
	require.NoError(t, err)
	assert.Len(t, sample, 2)
	for _, u := range sample {
		assert.NotEqual(t, amy.ID, u.ID)
	}

	sample, err = repo.Sample(ctx, amy.ID, 1)
	require.NoError(t, err)
	assert.Len(t, sample, 1)

	users, err := repo.GetByIDs(ctx, []string{bob.ID, cat.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}
