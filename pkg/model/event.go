package model

import (
	"fmt"
	"slices"
	"time"
)

// ShareDateFormat is how the primary date of an event is rendered in share texts.
const ShareDateFormat = "2006-01-02"

// Event domain object defining an event. Date is the earliest of Dates and is stored alongside them
// so listings can sort and display without loading the dates.
type Event struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Name        string      `gorm:"size:100;not null" json:"name"`
	Description string      `gorm:"not null;default:''" json:"description"`
	Location    string      `gorm:"not null;default:''" json:"location"`
	Date        time.Time   `gorm:"not null;index" json:"date"`
	ImageURL    string      `gorm:"column:image_url" json:"imageUrl,omitempty"`
	IsFeatured  bool        `gorm:"not null;default:false" json:"isFeatured"`
	UserID      uint        `gorm:"not null;index" json:"userId"`
	User        *User       `json:"owner,omitempty"`
	Dates       []EventDate `gorm:"constraint:OnDelete:CASCADE" json:"dates"`
}

// EventDate is a single occurrence of an event.
type EventDate struct {
	ID      uint      `gorm:"primarykey" json:"id"`
	EventID uint      `gorm:"not null;index" json:"eventId"`
	Date    time.Time `gorm:"not null" json:"date"`
}

// SetDates replaces the dates of the event with the given ones, sorted ascending, and derives the
// primary date from the earliest. Duplicates are kept. It panics if dates is empty.
func (e *Event) SetDates(dates []time.Time) {
	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	e.Date = sorted[0]
	e.Dates = make([]EventDate, len(sorted))
	for i, d := range sorted {
		e.Dates[i] = EventDate{EventID: e.ID, Date: d}
	}
}

// ShareText is the text suggested to users sharing the event.
func (e *Event) ShareText() string {
	return fmt.Sprintf("I will attend to %s @ %s", e.Name, e.Date.Format(ShareDateFormat))
}

// HasImage returns true if an image is attached to the event.
func (e *Event) HasImage() bool {
	return e.ImageURL != ""
}
