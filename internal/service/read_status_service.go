package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/repository"
)

// ReadStatusService persists per-user document read flags.
type ReadStatusService interface {
	SetReadStatus(ctx context.Context, userID uint, statuses map[string]bool) error
	GetReadStatus(ctx context.Context, userID uint) (map[string]bool, error)
}

type readStatusService struct {
	repo   repository.ReadStatusRepository
	users  repository.UserRepository
	locks  *userLocks
	logger zerolog.Logger
}

// NewReadStatusService constructs the read-status service.
func NewReadStatusService(repo repository.ReadStatusRepository, users repository.UserRepository, logger zerolog.Logger) ReadStatusService {
	return &readStatusService{
		repo:   repo,
		users:  users,
		locks:  newUserLocks(),
		logger: logger.With().Str("component", "read_status_service").Logger(),
	}
}

// maxDocumentNameLen matches the read_records.document_name column.
const maxDocumentNameLen = 255

// SetReadStatus replaces the user's whole read-status set with statuses.
// Keys are stored exactly as given; blank or whitespace padded keys are rejected.
func (s *readStatusService) SetReadStatus(ctx context.Context, userID uint, statuses map[string]bool) error {
	for name := range statuses {
		if err := validateDocumentName(name); err != nil {
			return err
		}
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if err := s.repo.Replace(ctx, userID, statuses); err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to save read status")
		return err
	}

	s.logger.Debug().Uint("user_id", userID).Int("documents", len(statuses)).Msg("read status saved")
	return nil
}

func (s *readStatusService) GetReadStatus(ctx context.Context, userID uint) (map[string]bool, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]bool, len(records))
	for _, record := range records {
		statuses[record.DocumentName] = record.IsRead
	}
	return statuses, nil
}

func validateDocumentName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name must not be blank", ErrInvalidDocumentName)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidDocumentName, name)
	case len(name) > maxDocumentNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidDocumentName, maxDocumentNameLen)
	}
	return nil
}

func (s *readStatusService) ensureUser(ctx context.Context, userID uint) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// userLocks serialises work per user id. Entries are dropped once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*userLock)}
}

func (l *userLocks) lock(userID uint) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
