package store

import (
	"context" // Context for queries
	"errors"  // Error kind checks
	"fmt"     // Error wrapping
	"time"    // Creation timestamps and TTL

	"gorm.io/gorm" // GORM ORM library

	"notes_system/internal/domain" // Importing domain models
	"notes_system/internal/utils"  // Cache interface
)

// DefaultCacheTTL bounds how long a cached note or note list may be served.
const DefaultCacheTTL = 60 * time.Second

var errOwnerNotFound = domain.NewError(domain.ErrNotFound, "User not found")

// NoteStore persists notes owned by users. Reads go through the cache when one is configured.
type NoteStore struct {
	db    *gorm.DB
	cache utils.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewNoteStore creates a NoteStore. cache may be nil; ttl <= 0 means DefaultCacheTTL.
func NewNoteStore(db *gorm.DB, cache utils.Cache, ttl time.Duration) *NoteStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &NoteStore{db: db, cache: orNop(cache), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the store that stamps created_at from now.
func (s *NoteStore) WithClock(now func() time.Time) *NoteStore {
	cp := *s
	cp.now = now
	return &cp
}

// ListByOwner returns all notes of ownerID in storage order.
func (s *NoteStore) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Note, error) {
	key := ownerNotesKey(ownerID)
	var notes []domain.Note
	if cacheGet(ctx, s.cache, key, &notes) {
		return notes, nil // Cache hit
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes of user %d: %w", ownerID, err)
	}
	cacheSet(ctx, s.cache, key, notes, s.ttl) // Cache the list
	return notes, nil
}

// Create stores a new note for ownerID, stamping created_at with the current time.
func (s *NoteStore) Create(ctx context.Context, ownerID uint, in domain.NoteInput) (*domain.Note, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", ownerID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check owner %d: %w", ownerID, err)
	}
	if count == 0 {
		return nil, errOwnerNotFound
	}
	note := domain.Note{
		Title:        in.Title,
		Body:         in.Body,
		PayeeAddress: in.PayeeAddress,
		PayeeAmount:  in.Amount(),
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond), // Server time, never the client's
		UserID:       ownerID,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		// Owner deleted after the check above; the foreign key rejects the insert
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, errOwnerNotFound
		}
		return nil, fmt.Errorf("create note: %w", err)
	}
	invalidate(ctx, s.cache, ownerNotesKey(ownerID)) // Owner's list changed
	return &note, nil
}

// GetByID looks a note up by primary key.
func (s *NoteStore) GetByID(ctx context.Context, id uint) (*domain.Note, error) {
	key := noteKey(id)
	var note domain.Note
	if cacheGet(ctx, s.cache, key, &note) {
		return &note, nil // Cache hit
	}
	if err := s.db.WithContext(ctx).First(&note, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "Note not found")
		}
		return nil, fmt.Errorf("find note %d: %w", id, err)
	}
	cacheSet(ctx, s.cache, key, note, s.ttl) // Cache the note
	return &note, nil
}

// Update replaces title, body and payee fields of note id. Owner and created_at are kept.
func (s *NoteStore) Update(ctx context.Context, id uint, in domain.NoteInput) (*domain.Note, error) {
	var note domain.Note
	if err := s.db.WithContext(ctx).First(&note, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "Note not found")
		}
		return nil, fmt.Errorf("find note %d: %w", id, err)
	}
	note.Title = in.Title
	note.Body = in.Body
	note.PayeeAddress = in.PayeeAddress
	note.PayeeAmount = in.Amount()
	err := s.db.WithContext(ctx).
		Model(&note).
		Select("Title", "Body", "PayeeAddress", "PayeeAmount"). // Nil fields are written as NULL
		Updates(&note).Error
	if err != nil {
		return nil, fmt.Errorf("update note %d: %w", id, err)
	}
	invalidate(ctx, s.cache, noteKey(id), ownerNotesKey(note.UserID)) // Drop stale copies
	return &note, nil
}

// Delete removes note id and returns its owner. Deleting a missing note is not an error;
// deleted is false in that case.
func (s *NoteStore) Delete(ctx context.Context, id uint) (ownerID uint, deleted bool, err error) {
	var note domain.Note
	err = s.db.WithContext(ctx).Select("id", "user_id").First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil // Nothing to delete
	}
	if err != nil {
		return 0, false, fmt.Errorf("find note %d: %w", id, err)
	}
	if err := s.db.WithContext(ctx).Delete(&domain.Note{}, id).Error; err != nil {
		return 0, false, fmt.Errorf("delete note %d: %w", id, err)
	}
	invalidate(ctx, s.cache, noteKey(id), ownerNotesKey(note.UserID)) // Drop stale copies
	return note.UserID, true, nil
}
