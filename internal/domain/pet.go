package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PetType string

const (
	PetTypeDog PetType = "dog"
	PetTypeCat PetType = "cat"
)

type Pet struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Type      PetType        `gorm:"size:16;not null" json:"type"`
	Species   string         `gorm:"size:64;not null" json:"species"`
	BirthDay  string         `gorm:"size:10" json:"birthDay"`
	ImageKey  string         `gorm:"size:512" json:"imageKey"`
	OwnerID   string         `gorm:"size:36;index;not null" json:"ownerId"`
	Owner     *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Pet) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

var speciesByType = map[PetType]map[string]struct{}{
	PetTypeDog: setOf(
		"labrador_retriever", "golden_retriever", "poodle", "german_shepherd",
		"shiba_inu", "french_bulldog", "chihuahua", "dachshund", "pug",
		"border_collie", "siberian_husky", "welsh_corgi_pembroke", "beagle",
		"pomeranian", "maltese", "yorkshire_terrier", "miniature_schnauzer",
		"jack_russell_terrier", "boston_terrier", "bernese_mountain_dog",
	),
	PetTypeCat: setOf(
		"siamese", "persian", "maine_coon", "american_shorthair",
		"scottish_fold", "british_shorthair", "russian_blue", "ragdoll",
		"norwegian_forest_cat", "bengal", "munchkin", "japanese_bobtail",
		"somali", "tonkinese", "singapura", "egyptian_mau", "household_pet",
	),
}

func setOf(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// ValidPetType reports whether s names a supported pet type.
func ValidPetType(s string) bool {
	_, ok := speciesByType[PetType(s)]
	return ok
}

// ValidSpecies reports whether species is in the whitelist for the given type.
func ValidSpecies(t PetType, species string) bool {
	valid, ok := speciesByType[t]
	if !ok {
		return false
	}
	_, ok = valid[species]
	return ok
}
