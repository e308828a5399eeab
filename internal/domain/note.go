package domain

import "time"

// Note is the single resource served by the API.
// ID is zero until the note has been persisted.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NotesTable is the table backing Note.
const NotesTable = "notes"

func (Note) TableName() string {
	return NotesTable
}
