package store

import (
	"context" // Context for queries
	"errors"  // Error kind checks
	"fmt"     // Error wrapping

	"gorm.io/gorm" // GORM ORM library

	"notes_system/internal/domain" // Importing domain models
	"notes_system/internal/utils"  // Password hasher and cache
)

var errInvalidCredentials = domain.NewError(domain.ErrInvalidCredentials, "Invalid username or password")

// UserStore persists users. Passwords are always stored as hashes produced by the injected hasher.
type UserStore struct {
	db     *gorm.DB
	hasher utils.PasswordHasher
	cache  utils.Cache
}

// NewUserStore creates a UserStore. cache may be nil.
func NewUserStore(db *gorm.DB, hasher utils.PasswordHasher, cache utils.Cache) *UserStore {
	return &UserStore{db: db, hasher: hasher, cache: orNop(cache)}
}

// Create stores a new user after checking username and email uniqueness.
func (s *UserStore) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if err := s.checkUnique(ctx, in, 0); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password) // Never store the plaintext
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a race on the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewError(domain.ErrConflict, "Username or email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// List returns every user ordered by id.
func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetByID looks a user up by primary key.
func (s *UserStore) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.first(ctx, domain.NewError(domain.ErrNotFound, "User not found with id: %d", id), "id = ?", id)
}

// GetByUsername looks a user up by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.first(ctx, domain.NewError(domain.ErrNotFound, "User not found with username: %s", username), "username = ?", username)
}

// GetByEmail looks a user up by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(ctx, domain.NewError(domain.ErrNotFound, "User not found with email: %s", email), "email = ?", email)
}

// Update overwrites username, email and, when non-empty, the password of user id.
func (s *UserStore) Update(ctx context.Context, id uint, in domain.UserInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in, id); err != nil {
		return nil, err
	}
	user.Username = in.Username
	user.Email = in.Email
	if in.Password != "" { // Empty keeps the current hash
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewError(domain.ErrConflict, "Username or email already exists")
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return user, nil
}

// Delete removes user id together with all of its notes.
func (s *UserStore) Delete(ctx context.Context, id uint) error {
	var noteIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error { // User and notes go together
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.NewError(domain.ErrNotFound, "User not found with id: %d", id)
		}
		// Collect note ids for cache invalidation
		if err := tx.Model(&domain.Note{}).Where("user_id = ?", id).Pluck("id", &noteIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Note{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, id).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	keys := []string{ownerNotesKey(id)}
	for _, noteID := range noteIDs {
		keys = append(keys, noteKey(noteID))
	}
	invalidate(ctx, s.cache, keys...)
	return nil
}

// Authenticate returns the user whose username and password match. Unknown usernames and wrong
// passwords fail with the same error.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) { // Compare against the stored hash
		return nil, errInvalidCredentials
	}
	return user, nil
}

// ExistsByUsername reports whether a user with username exists.
func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username = ?", username)
}

// ExistsByEmail reports whether a user with email exists.
func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email = ?", email)
}

// checkUnique fails with a conflict when username or email is used by a user other than exceptID.
func (s *UserStore) checkUnique(ctx context.Context, in domain.UserInput, exceptID uint) error {
	taken, err := s.exists(ctx, "username = ? AND id <> ?", in.Username, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewError(domain.ErrConflict, "Username already exists")
	}
	taken, err = s.exists(ctx, "email = ? AND id <> ?", in.Email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewError(domain.ErrConflict, "Email already exists")
	}
	return nil
}

func (s *UserStore) first(ctx context.Context, notFound error, query string, args ...any) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}
