package models

import (
	"strings"
	"time"
)

// PromoCode is a redeemable code with a global usage cap
type PromoCode struct {
	Code        string    `db:"code"`
	Reward      int64     `db:"reward"`
	MaxUses     int64     `db:"max_uses"`
	CurrentUses int64     `db:"current_uses"`
	CreatedAt   time.Time `db:"created_at"`
}

// IsExhausted returns true once the usage cap has been reached
func (p *PromoCode) IsExhausted() bool {
	return p.CurrentUses >= p.MaxUses
}

// CanonicalPromoCode normalizes user input to the stored form
func CanonicalPromoCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
