package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Card represents an issued virtual card and its ledger state
type Card struct {
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`
	StoredNumber string              `db:"card_number"`
	Balance      decimal.Decimal     `db:"balance"`
	CreditLimit  decimal.NullDecimal `db:"credit_limit"`
	ID           uuid.UUID           `db:"id"`
	IsActive     bool                `db:"is_active"`
}

// SpendingPower returns balance plus credit limit, treating an absent limit as zero.
func (c *Card) SpendingPower() decimal.Decimal {
	return c.Balance.Add(c.CreditLimitOrZero())
}

// CreditLimitOrZero returns the credit limit or zero when none is set.
func (c *Card) CreditLimitOrZero() decimal.Decimal {
	if !c.CreditLimit.Valid {
		return decimal.Zero
	}
	return c.CreditLimit.Decimal
}

// IssuedCard is returned once at issuance; it is the only place the plaintext number is exposed
type IssuedCard struct {
	Card   *Card
	Number string
}

// CardField names a mutable card attribute tracked by the audit trail
type CardField string

const (
	CardFieldBalance     CardField = "Balance"
	CardFieldCreditLimit CardField = "CreditLimit"
	CardFieldIsActive    CardField = "IsActive"
)

// CardFieldChange records a single-field mutation made through the card update path
type CardFieldChange struct {
	ChangedAt time.Time `db:"changed_at"`
	Field     CardField `db:"updated_field"`
	OldValue  string    `db:"old_value"`
	NewValue  string    `db:"new_value"`
	ID        uuid.UUID `db:"id"`
	CardID    uuid.UUID `db:"card_id"`
}

// CardUpdate carries the optional fields of an update request; nil means "leave as is"
type CardUpdate struct {
	Balance     *decimal.Decimal
	CreditLimit *decimal.Decimal
	IsActive    *bool
}

// CardHistory is a card's ledger activity and audit trail
type CardHistory struct {
	Card           *Card
	Transactions   []Transaction
	Changes        []CardFieldChange
	Authorizations []AuthorizationRecord
}
