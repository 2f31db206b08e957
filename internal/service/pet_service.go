package service

import (
	"context"
	"errors"
	"time"

	"github.com/aki-13627/animalia/internal/domain"
	"github.com/aki-13627/animalia/internal/repository"
)

var (
	ErrInvalidPetType    = errors.New("invalid pet type")
	ErrInvalidPetSpecies = errors.New("invalid species for pet type")
	ErrInvalidBirthDay   = errors.New("invalid birth day, expected YYYY-MM-DD")
	ErrNotPetOwner       = errors.New("pet does not belong to user")
)

type PetInput struct {
	Name     string
	Type     string
	Species  string
	BirthDay string
}

type PetServiceInterface interface {
	Create(ctx context.Context, ownerID string, in PetInput, image *ImageUpload) (*PetView, error)
	Update(ctx context.Context, id, ownerID string, in PetInput, image *ImageUpload) (*PetView, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]PetView, error)
}

type PetService struct {
	pets    repository.PetRepository
	storage StorageService
}

func NewPetService(pets repository.PetRepository, storage StorageService) *PetService {
	return &PetService{pets: pets, storage: storage}
}

func validatePetInput(in PetInput) (domain.PetType, error) {
	if !domain.ValidPetType(in.Type) {
		return "", ErrInvalidPetType
	}
	petType := domain.PetType(in.Type)
	if !domain.ValidSpecies(petType, in.Species) {
		return "", ErrInvalidPetSpecies
	}
	if in.BirthDay != "" {
		if _, err := time.Parse("2006-01-02", in.BirthDay); err != nil {
			return "", ErrInvalidBirthDay
		}
	}
	return petType, nil
}

func (s *PetService) Create(ctx context.Context, ownerID string, in PetInput, image *ImageUpload) (*PetView, error) {
	petType, err := validatePetInput(in)
	if err != nil {
		return nil, err
	}

	var imageKey string
	if image != nil {
		imageKey, err = s.storage.UploadImage(ctx, ImageKindPet, image.Reader, image.Size, image.ContentType)
		if err != nil {
			return nil, err
		}
	}

	pet := &domain.Pet{
		Name:     in.Name,
		Type:     petType,
		Species:  in.Species,
		BirthDay: in.BirthDay,
		ImageKey: imageKey,
		OwnerID:  ownerID,
	}
	if err := s.pets.Create(pet); err != nil {
		return nil, err
	}

	view, err := NewPetView(ctx, s.storage, pet)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *PetService) Update(ctx context.Context, id, ownerID string, in PetInput, image *ImageUpload) (*PetView, error) {
	pet, err := s.pets.FindByID(id)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != ownerID {
		return nil, ErrNotPetOwner
	}

	petType, err := validatePetInput(in)
	if err != nil {
		return nil, err
	}

	if image != nil {
		key, err := s.storage.UploadImage(ctx, ImageKindPet, image.Reader, image.Size, image.ContentType)
		if err != nil {
			return nil, err
		}
		oldKey := pet.ImageKey
		pet.ImageKey = key
		if oldKey != "" {
			_ = s.storage.DeleteImage(ctx, oldKey)
		}
	}

	pet.Name = in.Name
	pet.Type = petType
	pet.Species = in.Species
	pet.BirthDay = in.BirthDay
	if err := s.pets.Update(pet); err != nil {
		return nil, err
	}

	view, err := NewPetView(ctx, s.storage, pet)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *PetService) Delete(ctx context.Context, id, ownerID string) error {
	return s.pets.Delete(id, ownerID)
}

func (s *PetService) ListByOwner(ctx context.Context, ownerID string) ([]PetView, error) {
	pets, err := s.pets.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]PetView, 0, len(pets))
	for i := range pets {
		view, err := NewPetView(ctx, s.storage, &pets[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
