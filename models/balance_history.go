package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial          TransactionType = "initial"
	TransactionTypeAnimalPurchase   TransactionType = "animal_purchase"
	TransactionTypeProtectionBuy    TransactionType = "protection_purchase"
	TransactionTypePvPEscrow        TransactionType = "pvp_escrow"
	TransactionTypePvPWin           TransactionType = "pvp_win"
	TransactionTypePvPLoss          TransactionType = "pvp_loss"
	TransactionTypePvPRefund        TransactionType = "pvp_refund"
	TransactionTypePromoReward      TransactionType = "promo_reward"
	TransactionTypeDiceReward       TransactionType = "dice_reward"
	TransactionTypePhoneVerifyBonus TransactionType = "phone_verify_bonus"
	TransactionTypeTransferIn       TransactionType = "transfer_in"
	TransactionTypeTransferOut      TransactionType = "transfer_out"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypePvPBattle RelatedType = "pvp_battle"
	RelatedTypeUserFarm  RelatedType = "user_farm"
	RelatedTypeDiceRoll  RelatedType = "dice_roll"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
