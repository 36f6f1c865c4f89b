package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayeeAmountScale is the number of fractional digits kept for payee amounts.
const PayeeAmountScale = 6

// Note Model
type Note struct {
	ID           uint                `gorm:"primaryKey"`                           // Primary key
	Title        string              `gorm:"not null"`                             // Note title
	Body         *string             `gorm:"type:text"`                            // Free text body
	PayeeAddress *string             `gorm:"size:255"`                             // Optional payee address
	PayeeAmount  decimal.NullDecimal `gorm:"type:decimal(19,6)"`                   // Optional payee amount
	CreatedAt    time.Time           `gorm:"not null;autoCreateTime:false"`        // Set once by the store
	UserID       uint                `gorm:"not null;index"`                       // Owning user
	User         *User               `gorm:"constraint:OnDelete:CASCADE" json:"-"` // Schema-only: foreign key to users, never loaded
}

// NoteInput carries the mutable note fields.
type NoteInput struct {
	Title        string
	Body         *string
	PayeeAddress *string
	PayeeAmount  *decimal.Decimal
}

// Amount converts an optional decimal into the nullable column value, rounded to PayeeAmountScale.
func (in NoteInput) Amount() decimal.NullDecimal {
	if in.PayeeAmount == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(in.PayeeAmount.Round(PayeeAmountScale))
}
