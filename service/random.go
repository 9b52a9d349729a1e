package service

import "math/rand/v2"

// DiceRoller produces die values in [1,6]
type DiceRoller interface {
	Roll() int
}

type randomRoller struct{}

// NewRandomRoller returns a roller backed by the runtime's pseudorandom source
func NewRandomRoller() DiceRoller {
	return randomRoller{}
}

func (randomRoller) Roll() int {
	return rand.IntN(6) + 1
}
