package models

import (
	"strings"
	"time"
)

// Poster is a published event announcement. FileID references the photo on
// Telegram servers; PhotoPath points at the durable local copy served by the
// read API and used as a send fallback when the file_id goes stale.
type Poster struct {
	ID        int64      `db:"id" json:"id"`
	FileID    string     `db:"file_id" json:"file_id"`
	PhotoPath *string    `db:"photo_path" json:"photo_path,omitempty"`
	Caption   string     `db:"caption" json:"caption"`
	TicketURL *string    `db:"ticket_url" json:"ticket_url,omitempty"`
	CreatedAt *time.Time `db:"created_at" json:"created_at,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
}

// Title returns the first caption line, used as the poster headline.
func (p Poster) Title() string {
	head, _, _ := strings.Cut(p.Caption, "\n")
	return strings.TrimSpace(head)
}

// Subtitle returns everything after the first caption line.
func (p Poster) Subtitle() string {
	_, rest, found := strings.Cut(p.Caption, "\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// HasTicketURL reports whether a non-empty ticket link is attached.
func (p Poster) HasTicketURL() bool {
	return p.TicketURL != nil && strings.TrimSpace(*p.TicketURL) != ""
}

// PosterStats aggregates poster counters for the API stats endpoint.
type PosterStats struct {
	Total  int `db:"total" json:"total_posters"`
	Active int `db:"active" json:"active_posters"`
}
