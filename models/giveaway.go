package models

import "time"

// GiveawayStatus represents the state of a giveaway
type GiveawayStatus string

const (
	GiveawayStatusActive   GiveawayStatus = "active"
	GiveawayStatusFinished GiveawayStatus = "finished"
)

// Giveaway is a prize draw users can enter
type Giveaway struct {
	ID           int64          `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	Prize        string         `db:"prize" json:"prize"`
	Status       GiveawayStatus `db:"status" json:"status"`
	EndsAt       *time.Time     `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	Participants int64          `db:"participants" json:"participants"`
}

// IsActive returns true while users can still join
func (g *Giveaway) IsActive() bool {
	return g.Status == GiveawayStatusActive
}
