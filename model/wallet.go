package model

const (
	WalletDeposit  = "DEPOSIT"
	WalletWithdraw = "WITHDRAW"
	WalletPayment  = "PAYMENT"
	WalletRefund   = "REFUND"
	WalletBonus    = "BONUS"
)

type Wallet struct {
	DTO
	CustomerID uint     `gorm:"uniqueIndex;not null" json:"customerId"`
	Balance    float64  `gorm:"not null;default:0" json:"balance"`
	Customer   Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

// WalletTransaction là sổ cái append-only: tạo một lần, không bao giờ sửa.
// Chụp số dư trước/sau để đối soát.
type WalletTransaction struct {
	DTO
	CustomerID    uint    `gorm:"not null;index" json:"customerId"`
	Type          string  `gorm:"not null" json:"type"` // DEPOSIT, WITHDRAW, PAYMENT, REFUND, BONUS
	Amount        float64 `gorm:"not null" json:"amount"`
	BalanceBefore float64 `gorm:"not null" json:"balanceBefore"`
	BalanceAfter  float64 `gorm:"not null" json:"balanceAfter"`
	Reason        string  `json:"reason"`
	BookingID     *uint   `gorm:"default:null" json:"bookingId,omitempty"`
}

type DepositInput struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}
