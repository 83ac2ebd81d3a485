// model/book.go
package model

import "time"

type Book struct {
	ID              int64      `json:"id"`
	Cover           string     `json:"cover,omitempty"`
	Title           string     `json:"title"`
	Authors         []string   `json:"authors"`
	Description     string     `json:"description,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Publisher       string     `json:"publisher,omitempty"`
	Pages           int        `json:"pages,omitempty"`
	Category        string     `json:"category,omitempty"`
	TotalStock      int        `json:"total_stock"`
	AvailableStock  int        `json:"available_stock"`
	PatronID        int64      `json:"patron_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
