package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/buildwise/buildwise/backend-go/internal/domain"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

var ErrSessionNotFound = errors.New("session not found")

// UserCursor is one entry in the active-users listing.
type UserCursor struct {
	UserID      string  `json:"userId"`
	DisplayName string  `json:"displayName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Service tracks per-user liveness and cursor position on a canvas.
// Liveness is a read-time staleness filter over the last-activity
// timestamp, not a push-based disconnect signal: a silently dropped
// connection keeps appearing active until the window lapses.
type Service struct {
	db     *gorm.DB
	window time.Duration
}

func NewService(db *gorm.DB, window time.Duration) *Service {
	return &Service{db: db, window: window}
}

// CreateSession inserts a fresh active session for the user, first
// deactivating any existing active sessions for the same (canvas, user)
// pair: the last connecting tab or device wins for presence, and stale
// duplicates persist as inactive history.
func (s *Service) CreateSession(ctx context.Context, canvasID, userID string) (*domain.CanvasSession, error) {
	sess := domain.CanvasSession{
		CanvasID:     canvasID,
		UserID:       userID,
		SessionID:    typeid.NewSessionID(),
		IsActive:     true,
		LastActivity: time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.CanvasSession{}).
			Where("canvas_id = ? AND user_id = ? AND is_active = ?", canvasID, userID, true).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("deactivate prior sessions: %w", err)
		}
		if err := tx.Create(&sess).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateCursor records a cursor position and refreshes last-activity. An
// unknown session id is a silent no-op: presence pings racing a session
// teardown are expected and harmless.
func (s *Service) UpdateCursor(ctx context.Context, sessionID string, x, y float64) error {
	err := s.db.WithContext(ctx).Model(&domain.CanvasSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"cursor_x":      x,
			"cursor_y":      y,
			"last_activity": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}
	return nil
}

// Deactivate is the explicit teardown used when a client proactively
// signals departure.
func (s *Service) Deactivate(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Model(&domain.CanvasSession{}).
		Where("session_id = ?", sessionID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ActiveUsers returns the cursor of every session that is active and has
// seen activity within the presence window, with display names resolved
// from the user directory.
func (s *Service) ActiveUsers(ctx context.Context, canvasID string) ([]UserCursor, error) {
	sessions, err := s.activeSessions(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	users := make([]UserCursor, 0, len(sessions))
	for _, sess := range sessions {
		var user domain.User
		err := s.db.WithContext(ctx).First(&user, "id = ?", sess.UserID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve user %s: %w", sess.UserID, err)
		}
		users = append(users, UserCursor{
			UserID:      sess.UserID,
			DisplayName: user.DisplayName,
			X:           sess.CursorX,
			Y:           sess.CursorY,
		})
	}
	return users, nil
}

// CountActive reports the number of users currently active on the canvas.
func (s *Service) CountActive(ctx context.Context, canvasID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.CanvasSession{}).
		Where("canvas_id = ? AND is_active = ? AND last_activity >= ?",
			canvasID, true, time.Now().Add(-s.window)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return int(count), nil
}

func (s *Service) activeSessions(ctx context.Context, canvasID string) ([]domain.CanvasSession, error) {
	var sessions []domain.CanvasSession
	err := s.db.WithContext(ctx).
		Where("canvas_id = ? AND is_active = ? AND last_activity >= ?",
			canvasID, true, time.Now().Add(-s.window)).
		Order("joined_at").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}
