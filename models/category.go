package models

// ArticleCategory is created independently and referenced by articles.
// Categories are never deleted in the normal flow.
type ArticleCategory struct {
	Id          uint   `json:"id" gorm:"primaryKey"`
	DisplayName string `json:"display_name" gorm:"unique;not null"`
}
