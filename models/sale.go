package models

import (
	"time"

	"salestracker-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sale records one transaction of a quantity of an article at a unit price.
// Date and AuthorId are always stamped server-side on create and update,
// never taken from client input.
type Sale struct {
	Id               string       `json:"id" gorm:"primaryKey"`
	ArticleId        string       `json:"article" gorm:"not null;index"`
	Article          Article      `json:"-" gorm:"foreignKey:ArticleId;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Quantity         int          `json:"quantity"`
	UnitSellingPrice utils.Amount `json:"unit_selling_price" gorm:"type:numeric(12,2)"`
	Date             time.Time    `json:"date" gorm:"index"`
	AuthorId         string       `json:"author" gorm:"not null;index"`
}

func (sale *Sale) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	sale.Id = uuid.NewString()
	return
}

// OwnedBy reports whether requester is the original author of the sale.
// Only they may update or delete it.
func (sale *Sale) OwnedBy(requester string) bool {
	return sale.AuthorId == requester
}
