package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/induction-api/internal/models"
)

// ReadStatusRepository persists per-user document read flags.
type ReadStatusRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.ReadRecord, error)
	ListAll(ctx context.Context) ([]models.ReadRecord, error)
	Replace(ctx context.Context, userID uint, statuses map[string]bool) error
}

type readStatusRepository struct {
	db *gorm.DB
}

// NewReadStatusRepository instantiates the repository.
func NewReadStatusRepository(db *gorm.DB) ReadStatusRepository {
	return &readStatusRepository{db: db}
}

func (r *readStatusRepository) ListByUser(ctx context.Context, userID uint) ([]models.ReadRecord, error) {
	var records []models.ReadRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("document_name ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (r *readStatusRepository) ListAll(ctx context.Context) ([]models.ReadRecord, error) {
	var records []models.ReadRecord
	if err := r.db.WithContext(ctx).Order("user_id ASC, document_name ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// Replace makes the stored set for userID equal to statuses in one transaction:
// rows missing from statuses are removed and the rest are upserted.
func (r *readStatusRepository) Replace(ctx context.Context, userID uint, statuses map[string]bool) error {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("user_id = ?", userID)
		if len(names) > 0 {
			stale = stale.Where("document_name NOT IN ?", names)
		}
		if err := stale.Delete(&models.ReadRecord{}).Error; err != nil {
			return err
		}

		if len(names) == 0 {
			return nil
		}

		records := make([]models.ReadRecord, 0, len(names))
		for _, name := range names {
			records = append(records, models.ReadRecord{
				UserID:       userID,
				DocumentName: name,
				IsRead:       statuses[name],
			})
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "document_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_read", "updated_at"}),
		}).Create(&records).Error
	})
}
