package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/induction-api/internal/models"
)

// DocumentRepository persists the document registry.
type DocumentRepository interface {
	List(ctx context.Context) ([]models.Document, error)
	GetByID(ctx context.Context, id uint) (models.Document, error)
	GetByFilename(ctx context.Context, filename string) (models.Document, error)
	Create(ctx context.Context, document *models.Document) error
	Delete(ctx context.Context, id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository instantiates the repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) List(ctx context.Context) ([]models.Document, error) {
	var documents []models.Document
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&documents).Error; err != nil {
		return nil, err
	}

	return documents, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return models.Document{}, err
	}

	return document, nil
}

func (r *documentRepository) GetByFilename(ctx context.Context, filename string) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&document).Error; err != nil {
		return models.Document{}, err
	}

	return document, nil
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *documentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
