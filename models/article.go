package models

import (
	"salestracker-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Article struct {
	Id         string          `json:"id" gorm:"primaryKey"`
	Code       string          `json:"code" gorm:"unique;not null"`
	CategoryId uint            `json:"-" gorm:"not null;index"`
	Category   ArticleCategory `json:"category" gorm:"foreignKey:CategoryId;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Name       string          `json:"name" gorm:"not null"`
	// ManufacturingCost is immutable after creation; margin computation relies on it.
	ManufacturingCost utils.Amount `json:"manufacturing_cost" gorm:"type:numeric(12,2)"`
}

func (article *Article) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	article.Id = uuid.NewString()
	return
}
