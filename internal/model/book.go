package model

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
)

// Book is a single library record. Text columns are unbounded so that every
// backend stores oversized values the same way; length limits only apply when
// strict validation is enabled.
type Book struct {
	ID            uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name          string `json:"name" gorm:"type:text" validate:"notblank,max=64"`
	Author        string `json:"author" gorm:"type:text" validate:"notblank,max=64"`
	YearPublished int    `json:"year_published" gorm:"column:year_published" validate:"min=1,max=9999"`
	BookType      string `json:"book_type" gorm:"column:book_type;type:text" validate:"max=64"`
	Status        string `json:"status" gorm:"type:text;default:'available'" validate:"omitempty,notblank,max=64"`
}

// New builds an unsaved book. An omitted or empty status becomes "available".
func New(name, author string, yearPublished int, bookType string, status ...string) *Book {
	b := &Book{
		Name:          name,
		Author:        author,
		YearPublished: yearPublished,
		BookType:      bookType,
	}
	if len(status) > 0 {
		b.Status = status[0]
	}
	b.applyDefaults()
	return b
}

func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	b.applyDefaults()
	return
}

func (b *Book) applyDefaults() {
	if b.Status == "" {
		b.Status = StatusAvailable
	}
}

func (b *Book) String() string {
	return fmt.Sprintf(
		"Book(ID: %d, Name: %s, Author: %s, Year Published: %d, Type: %s, Status: %s)",
		b.ID,
		b.Name,
		b.Author,
		b.YearPublished,
		b.BookType,
		b.Status,
	)
}
