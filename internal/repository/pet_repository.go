package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

var ErrPetNotFound = errors.New("pet not found")

type PetRepository interface {
	Create(pet *domain.Pet) error
	FindByID(id string) (*domain.Pet, error)
	ListByOwner(ownerID string) ([]domain.Pet, error)
	Update(pet *domain.Pet) error
	Delete(id, ownerID string) error
}

type GormPetRepository struct{ db *gorm.DB }

func NewPetRepository(db *gorm.DB) PetRepository {
	return &GormPetRepository{db: db}
}

func (r *GormPetRepository) Create(pet *domain.Pet) error {
	return r.db.Create(pet).Error
}

func (r *GormPetRepository) FindByID(id string) (*domain.Pet, error) {
	var pet domain.Pet
	if err := r.db.First(&pet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return &pet, nil
}

func (r *GormPetRepository) ListByOwner(ownerID string) ([]domain.Pet, error) {
	var pets []domain.Pet
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at asc").Find(&pets).Error
	return pets, err
}

func (r *GormPetRepository) Update(pet *domain.Pet) error {
	return r.db.Save(pet).Error
}

func (r *GormPetRepository) Delete(id, ownerID string) error {
	res := r.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&domain.Pet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPetNotFound
	}
	return nil
}
