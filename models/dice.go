package models

import "time"

// DiceCooldown is the minimum time between two daily rolls
const DiceCooldown = 24 * time.Hour

// DiceReward returns the points paid for a die value
func DiceReward(value int) int64 {
	if value == 1 {
		return 100
	}
	return int64(value) * 10
}

// DiceRoll is the outcome of a daily roll
type DiceRoll struct {
	Value  int   `json:"value"`
	Points int64 `json:"points"`
}
