package repository

import (
	"nal/internal/models"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(p *models.Property) error {
	return r.db.Create(p).Error
}

func (r *PropertyRepository) GetByID(id uint) (*models.Property, error) {
	var p models.Property
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepository) GetByUUID(uuid string) (*models.Property, error) {
	var p models.Property
	if err := r.db.Where("uuid = ?", uuid).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepository) List(city string, limit, offset int) ([]models.Property, error) {
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if city != "" {
		q = q.Where("city = ?", city)
	}
	var props []models.Property
	if err := q.Find(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}
