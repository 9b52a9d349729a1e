package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettleDuel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		bet            int64
		challengerRoll int
		acceptorRoll   int
		expected       DuelSettlement
		message        string
	}{
		{
			name:           "challenger wins collects both stakes",
			bet:            50,
			challengerRoll: 6,
			acceptorRoll:   1,
			expected:       DuelSettlement{Outcome: DuelOutcomeChallengerWins, AcceptorDebit: 50, ChallengerCredit: 100},
			message:        "Победил создатель вызова! +50 PTS",
		},
		{
			name:           "acceptor wins is credited the bet only",
			bet:            50,
			challengerRoll: 2,
			acceptorRoll:   5,
			expected:       DuelSettlement{Outcome: DuelOutcomeAcceptorWins, AcceptorCredit: 50},
			message:        "Вы победили! +50 PTS",
		},
		{
			name:           "draw refunds the challenger",
			bet:            10,
			challengerRoll: 3,
			acceptorRoll:   3,
			expected:       DuelSettlement{Outcome: DuelOutcomeDraw, ChallengerCredit: 10},
			message:        "Ничья! Ставки возвращены",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SettleDuel(tt.bet, tt.challengerRoll, tt.acceptorRoll)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.message, got.Message(tt.bet))
		})
	}
}

func TestSettleDuel_ConservesEscrow(t *testing.T) {
	t.Parallel()

	// The challenger has already paid bet into escrow. Across every roll
	// pair the combined change (escrow included) must equal zero for a
	// draw and the net stake otherwise.
	const bet = int64(40)
	for c := 1; c <= 6; c++ {
		for a := 1; a <= 6; a++ {
			s := SettleDuel(bet, c, a)
			challengerNet := -bet + s.ChallengerCredit
			acceptorNet := s.AcceptorCredit - s.AcceptorDebit

			switch s.Outcome {
			case DuelOutcomeDraw:
				assert.Zero(t, challengerNet)
				assert.Zero(t, acceptorNet)
			case DuelOutcomeChallengerWins:
				assert.Equal(t, bet, challengerNet)
				assert.Equal(t, -bet, acceptorNet)
			case DuelOutcomeAcceptorWins:
				assert.Equal(t, -bet, challengerNet)
				assert.Equal(t, bet, acceptorNet)
			}
		}
	}
}

func TestPvPBattle_Predicates(t *testing.T) {
	t.Parallel()

	battle := &PvPBattle{ChallengerID: 1, Status: BattleStatusPending}
	assert.True(t, battle.IsPending())
	assert.False(t, battle.CanBeAcceptedBy(1))
	assert.True(t, battle.CanBeAcceptedBy(2))

	battle.Status = BattleStatusFinished
	assert.False(t, battle.IsPending())
}
