package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notes_system/internal/domain"
	"notes_system/internal/store"
	"notes_system/internal/testutil"
	"notes_system/internal/utils"
)

func newUserStore(t *testing.T) *store.UserStore {
	t.Helper()
	return store.NewUserStore(testutil.NewDB(t), utils.NewBcryptHasher(bcrypt.MinCost), nil)
}

func alice() domain.UserInput {
	return domain.UserInput{Username: "alice", Email: "alice@example.com", Password: "s3cret"}
}

func TestUserStore_CreateHashesPassword(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	user, err := users.Create(ctx, alice())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
}

func TestUserStore_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)
	_, err := users.Create(ctx, alice())
	require.NoError(t, err)

	_, err = users.Create(ctx, domain.UserInput{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Username already exists", domain.Message(err))

	_, err = users.Create(ctx, domain.UserInput{Username: "other", Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Email already exists", domain.Message(err))

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserStore_Lookups(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)
	created, err := users.Create(ctx, alice())
	require.NoError(t, err)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found with id: 999", domain.Message(err))

	_, err = users.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found with username: bob", domain.Message(err))

	_, err = users.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found with email: bob@example.com", domain.Message(err))

	exists, err := users.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = users.ExistsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserStore_ListOrderedByID(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := users.Create(ctx, domain.UserInput{Username: name, Email: name + "@example.com", Password: "x"})
		require.NoError(t, err)
	}
	list, err = users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "carol", list[0].Username)
	assert.Equal(t, "alice", list[1].Username)
	assert.Equal(t, "bob", list[2].Username)
}

func TestUserStore_Update(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)
	created, err := users.Create(ctx, alice())
	require.NoError(t, err)

	updated, err := users.Update(ctx, created.ID, domain.UserInput{Username: "alice2", Email: "alice2@example.com", Password: "n3w"})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	_, err = users.Authenticate(ctx, "alice2", "n3w")
	assert.NoError(t, err)

	// Empty password keeps the current hash
	_, err = users.Update(ctx, created.ID, domain.UserInput{Username: "alice2", Email: "alice2@example.com"})
	require.NoError(t, err)
	_, err = users.Authenticate(ctx, "alice2", "n3w")
	assert.NoError(t, err)

	_, err = users.Update(ctx, 999, alice())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserStore_UpdateConflicts(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)
	a, err := users.Create(ctx, alice())
	require.NoError(t, err)
	_, err = users.Create(ctx, domain.UserInput{Username: "bob", Email: "bob@example.com", Password: "x"})
	require.NoError(t, err)

	_, err = users.Update(ctx, a.ID, domain.UserInput{Username: "bob", Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Username already exists", domain.Message(err))

	_, err = users.Update(ctx, a.ID, domain.UserInput{Username: "alice", Email: "bob@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Email already exists", domain.Message(err))

	// Keeping its own username and email is not a conflict
	_, err = users.Update(ctx, a.ID, alice())
	assert.NoError(t, err)
}

func TestUserStore_Authenticate(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)
	created, err := users.Create(ctx, alice())
	require.NoError(t, err)

	user, err := users.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, wrongPassword := users.Authenticate(ctx, "alice", "wrong")
	_, unknownUser := users.Authenticate(ctx, "bob", "s3cret")
	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, domain.ErrInvalidCredentials)
	assert.Equal(t, domain.Message(wrongPassword), domain.Message(unknownUser))
}

func TestUserStore_DeleteCascadesNotes(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	users := store.NewUserStore(gdb, utils.NewBcryptHasher(bcrypt.MinCost), nil)
	notes := store.NewNoteStore(gdb, nil, 0)

	a, err := users.Create(ctx, alice())
	require.NoError(t, err)
	b, err := users.Create(ctx, domain.UserInput{Username: "bob", Email: "bob@example.com", Password: "x"})
	require.NoError(t, err)
	amount := decimal.RequireFromString("10")
	aliceNote, err := notes.Create(ctx, a.ID, domain.NoteInput{Title: "rent", PayeeAmount: &amount})
	require.NoError(t, err)
	_, err = notes.Create(ctx, b.ID, domain.NoteInput{Title: "bob's"})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, a.ID))

	_, err = users.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = notes.GetByID(ctx, aliceNote.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	remaining, err := notes.ListByOwner(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	err = users.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found with id: "+itoa(a.ID), domain.Message(err))
}

// insertBeforeCreate makes a concurrent writer take username/email between the uniqueness check and the insert.
func insertBeforeCreate(t *testing.T, gdb *gorm.DB, username, email string) {
	t.Helper()
	err := gdb.Callback().Create().Before("gorm:create").Register("test:concurrent_user", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*domain.User); !ok {
			return
		}
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)", username, email, "x")
	})
	require.NoError(t, err)
}

func TestUserStore_CreateLosesRace(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	// Without the default transaction the concurrent insert commits on its own
	autocommit := gdb.Session(&gorm.Session{SkipDefaultTransaction: true})
	users := store.NewUserStore(autocommit, utils.NewBcryptHasher(bcrypt.MinCost), nil)
	insertBeforeCreate(t, gdb, "alice", "racer@example.com")

	_, err := users.Create(ctx, alice())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Username or email already exists", domain.Message(err))

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "racer@example.com", list[0].Email)
}
