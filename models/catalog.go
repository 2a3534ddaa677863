// models/catalog.go
package models

import "time"

const (
	AuthorTable = "lib_authors"
	BookTable   = "lib_books"
)

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	Email     string    `gorm:"size:254" json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Book 每行只代表一本实体书：Available 是单本占用标志，不是库存数
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	AuthorID        uint      `gorm:"index;not null" json:"authorId"`
	Author          *Author   `gorm:"constraint:OnDelete:CASCADE" json:"author,omitempty"`
	ISBN            string    `gorm:"column:isbn;size:13;uniqueIndex;not null" json:"isbn"`
	PublicationDate time.Time `gorm:"type:date;not null" json:"publicationDate"`
	Available       bool      `gorm:"not null;index" json:"available"`
	ImageURL        *string   `gorm:"size:500" json:"imageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Author) TableName() string { return AuthorTable }
func (Book) TableName() string   { return BookTable }
