package models

import (
	"fmt"
	"time"
)

// MinimumBet is the smallest stake a duel offer can carry
const MinimumBet int64 = 10

// BattleStatus represents the state of a PvP duel offer
type BattleStatus string

const (
	BattleStatusPending  BattleStatus = "pending"
	BattleStatusFinished BattleStatus = "finished"
)

// PvPBattle represents a dice duel offer. The challenger's stake is
// withheld when the offer is created.
type PvPBattle struct {
	BattleID       int64        `db:"battle_id"`
	ChallengerID   int64        `db:"challenger_id"`
	OpponentID     *int64       `db:"opponent_id"`
	Bet            int64        `db:"bet"`
	Status         BattleStatus `db:"status"`
	ChallengerRoll *int         `db:"challenger_roll"`
	OpponentRoll   *int         `db:"opponent_roll"`
	WinnerID       *int64       `db:"winner_id"`
	CreatedAt      time.Time    `db:"created_at"`
	FinishedAt     *time.Time   `db:"finished_at"`
}

// IsPending returns true while the offer can still be accepted
func (b *PvPBattle) IsPending() bool {
	return b.Status == BattleStatusPending
}

// CanBeAcceptedBy reports whether userID is allowed to take the other side
func (b *PvPBattle) CanBeAcceptedBy(userID int64) bool {
	return b.ChallengerID != userID
}

// PvPOffer is a pending battle enriched with challenger display data
type PvPOffer struct {
	BattleID          int64        `json:"battle_id"`
	ChallengerID      int64        `json:"challenger_id"`
	Bet               int64        `json:"bet"`
	Status            BattleStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	ChallengerName    string       `json:"challenger_name"`
	ChallengerShortID int64        `json:"challenger_short_id"`
}

// DuelOutcome is the result of a duel from the challenger's side
type DuelOutcome string

const (
	DuelOutcomeChallengerWins DuelOutcome = "challenger_wins"
	DuelOutcomeAcceptorWins   DuelOutcome = "acceptor_wins"
	DuelOutcomeDraw           DuelOutcome = "draw"
)

// DuelSettlement describes the balance movements that close a duel.
// The acceptor never pre-pays, so only a challenger win debits them.
type DuelSettlement struct {
	Outcome          DuelOutcome
	AcceptorDebit    int64
	AcceptorCredit   int64
	ChallengerCredit int64
}

// SettleDuel computes the balance movements for a duel with the given rolls
func SettleDuel(bet int64, challengerRoll, acceptorRoll int) DuelSettlement {
	switch {
	case challengerRoll > acceptorRoll:
		return DuelSettlement{
			Outcome:          DuelOutcomeChallengerWins,
			AcceptorDebit:    bet,
			ChallengerCredit: 2 * bet,
		}
	case acceptorRoll > challengerRoll:
		return DuelSettlement{
			Outcome:        DuelOutcomeAcceptorWins,
			AcceptorCredit: bet,
		}
	default:
		return DuelSettlement{
			Outcome:          DuelOutcomeDraw,
			ChallengerCredit: bet,
		}
	}
}

// Message returns the text shown to the acceptor
func (s DuelSettlement) Message(bet int64) string {
	switch s.Outcome {
	case DuelOutcomeChallengerWins:
		return fmt.Sprintf("Победил создатель вызова! +%d PTS", bet)
	case DuelOutcomeAcceptorWins:
		return fmt.Sprintf("Вы победили! +%d PTS", bet)
	default:
		return "Ничья! Ставки возвращены"
	}
}

// DuelResult is returned to the acceptor after settlement
type DuelResult struct {
	BattleID       int64       `json:"battle_id"`
	Winner         bool        `json:"winner"`
	Message        string      `json:"message"`
	Outcome        DuelOutcome `json:"outcome"`
	ChallengerRoll int         `json:"challenger_roll"`
	OpponentRoll   int         `json:"opponent_roll"`
	Delta          int64       `json:"delta"`
}

// PvPStats holds a user's duel record
type PvPStats struct {
	UserID int64 `db:"user_id"`
	Wins   int64 `db:"wins"`
	Losses int64 `db:"losses"`
	Draws  int64 `db:"draws"`
}
