package postgres

import (
	"BioLink-Backend/internal/domain"
	"BioLink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStorage implements repository.Storage on PostgreSQL through GORM.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a PostgreSQL storage.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// Ping checks the underlying connection.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- Event Methods ---

// CreateEventIfAbsent inserts the event. A view carrying a dedup day that
// collides with idx_events_view_dedup is dropped by ON CONFLICT DO NOTHING,
// which makes the existence check and the insert a single statement.
func (s *PostgresStorage) CreateEventIfAbsent(ctx context.Context, event *domain.Event) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		s.logStoreError("failed to insert event", result.Error,
			zap.String("profile_id", event.ProfileID),
			zap.String("event_type", string(event.EventType)))
		return false, fmt.Errorf("failed to insert event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListEvents returns events matching the filter in chronological order.
func (s *PostgresStorage) ListEvents(ctx context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	var events []domain.Event
	err := s.scope(ctx, filter).Order("created_at ASC").Find(&events).Error
	if err != nil {
		s.logStoreError("failed to list events", err, zap.String("profile_id", filter.ProfileID))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CountEvents counts events matching the filter.
func (s *PostgresStorage) CountEvents(ctx context.Context, filter repository.EventFilter) (int64, error) {
	var count int64
	err := s.scope(ctx, filter).Count(&count).Error
	if err != nil {
		s.logStoreError("failed to count events", err, zap.String("profile_id", filter.ProfileID))
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) scope(ctx context.Context, filter repository.EventFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&domain.Event{})
	if filter.ProfileID != "" {
		q = q.Where("profile_id = ?", filter.ProfileID)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at < ?", filter.To)
	}
	if len(filter.Types) > 0 {
		q = q.Where("event_type IN ?", filter.Types)
	}
	return q
}

// --- Badge Methods ---

// ListActiveBadges returns the active catalog ordered by category and threshold.
func (s *PostgresStorage) ListActiveBadges(ctx context.Context) ([]domain.Badge, error) {
	var badges []domain.Badge
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category ASC, target_value ASC, id ASC").
		Find(&badges).Error
	if err != nil {
		s.logStoreError("failed to list badges", err)
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

// GetBadge returns one catalog entry.
func (s *PostgresStorage) GetBadge(ctx context.Context, badgeID string) (*domain.Badge, error) {
	var badge domain.Badge
	err := s.db.WithContext(ctx).Where("id = ?", badgeID).First(&badge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrBadgeNotFound
	}
	if err != nil {
		s.logStoreError("failed to get badge", err, zap.String("badge_id", badgeID))
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	return &badge, nil
}

// ListUserBadges returns every progress row of the user with its badge preloaded.
func (s *PostgresStorage) ListUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	var rows []domain.UserBadge
	err := s.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("badge_id ASC").
		Find(&rows).Error
	if err != nil {
		s.logStoreError("failed to list user badges", err, zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	return rows, nil
}

// AwardBadge upserts a completed row. The DO UPDATE only fires while the
// existing row is incomplete, so racing evaluations award at most once and
// a completed row is never rewritten.
func (s *PostgresStorage) AwardBadge(ctx context.Context, userID, badgeID string, progress int64, earnedAt time.Time) (bool, error) {
	row := domain.UserBadge{
		UserID:      userID,
		BadgeID:     badgeID,
		Progress:    progress,
		IsCompleted: true,
		EarnedAt:    &earnedAt,
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress":     gorm.Expr("GREATEST(user_badges.progress, EXCLUDED.progress)"),
				"is_completed": true,
				"earned_at":    gorm.Expr("EXCLUDED.earned_at"),
				"updated_at":   gorm.Expr("EXCLUDED.updated_at"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "user_badges", Name: "is_completed"}, Value: false},
			}},
		}).
		Create(&row)
	if result.Error != nil {
		s.logStoreError("failed to award badge", result.Error,
			zap.String("user_id", userID), zap.String("badge_id", badgeID))
		return false, fmt.Errorf("failed to award badge: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// UpdateBadgeProgress upserts an incomplete row, keeping the larger progress.
func (s *PostgresStorage) UpdateBadgeProgress(ctx context.Context, userID, badgeID string, progress int64) error {
	row := domain.UserBadge{
		UserID:   userID,
		BadgeID:  badgeID,
		Progress: progress,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress":   gorm.Expr("GREATEST(user_badges.progress, EXCLUDED.progress)"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "user_badges", Name: "is_completed"}, Value: false},
			}},
		}).
		Create(&row).Error
	if err != nil {
		s.logStoreError("failed to update badge progress", err,
			zap.String("user_id", userID), zap.String("badge_id", badgeID))
		return fmt.Errorf("failed to update badge progress: %w", err)
	}
	return nil
}

// --- Profile Methods ---

// ResolveProfileID returns the profile owned by the user.
func (s *PostgresStorage) ResolveProfileID(ctx context.Context, userID string) (string, error) {
	var profile domain.Profile
	err := s.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", repository.ErrProfileNotFound
	}
	if err != nil {
		s.logStoreError("failed to resolve profile", err, zap.String("user_id", userID))
		return "", fmt.Errorf("failed to resolve profile: %w", err)
	}
	return profile.ID, nil
}

// GetProfile returns a profile by ID.
func (s *PostgresStorage) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := s.db.WithContext(ctx).Where("id = ?", profileID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		s.logStoreError("failed to get profile", err, zap.String("profile_id", profileID))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// CountLinks counts the user's active links.
func (s *PostgresStorage) CountLinks(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	if err != nil {
		s.logStoreError("failed to count links", err, zap.String("user_id", userID))
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// --- Helper Methods ---

// logStoreError logs err, expanding Postgres code/message/detail when present.
func (s *PostgresStorage) logStoreError(msg string, err error, fields ...zap.Field) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields = append(fields,
			zap.String("code", pgErr.Code),
			zap.String("message", pgErr.Message),
			zap.String("detail", pgErr.Detail),
		)
	}
	fields = append(fields, zap.Error(err))
	s.log.Error(msg, fields...)
}
