package model

import "time"

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingRefunded  = "REFUNDED"
	BookingExpired   = "EXPIRED"
)

const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
)

const (
	MethodCash   = "CASH"
	MethodWallet = "WALLET"
	MethodCard   = "CARD"
	MethodVNPay  = "VNPAY"
)

// bookingTransitions là máy trạng thái của đơn: PENDING đi được tới
// CONFIRMED/CANCELLED/EXPIRED, CONFIRMED chỉ hủy được (hủy đơn đã thanh
// toán chốt thành REFUNDED). Các trạng thái còn lại là terminal.
var bookingTransitions = map[string][]string{
	BookingPending:   {BookingConfirmed, BookingCancelled, BookingExpired},
	BookingConfirmed: {BookingCancelled, BookingRefunded},
	BookingCancelled: {BookingRefunded},
}

func CanTransition(from, to string) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func TerminalStatus(status string) bool {
	return status == BookingCancelled || status == BookingRefunded || status == BookingExpired
}

type Booking struct {
	DTO
	PublicCode    string     `gorm:"unique;size:20" json:"publicCode"`
	CustomerID    *uint      `json:"customerId,omitempty"` // null nếu khách vãng lai
	Customer      *Customer  `json:"customer,omitempty"`
	Session       string     `gorm:"size:64" json:"-"` // session của holder lúc checkout
	ShowtimeID    uint       `json:"showtimeId"`
	Showtime      Showtime   `json:"showtime"`
	SeatSubtotal  float64    `json:"seatSubtotal"`
	ComboSubtotal float64    `json:"comboSubtotal"`
	Discount      float64    `json:"discount"`
	TotalAmount   float64    `json:"totalAmount"`
	PaymentMethod string     `json:"paymentMethod"` // CASH, WALLET, CARD, VNPAY
	PaymentStatus string     `gorm:"default:PENDING" json:"paymentStatus"`
	Status        string     `gorm:"default:PENDING" json:"status"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	RefundAmount  *float64   `json:"refundAmount,omitempty"`
	RefundedAt    *time.Time `json:"refundedAt,omitempty"`
	RefundReason  string     `json:"refundReason,omitempty"`
	CustomerName  string     `json:"customerName"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	Seats         []BookingSeat  `gorm:"foreignKey:BookingId" json:"seats"`
	Combos        []BookingCombo `gorm:"foreignKey:BookingId" json:"combos"`
}

func (b Booking) Holder() Holder {
	return Holder{CustomerID: b.CustomerID, Session: b.Session}
}

// BookingSeat chụp giá ghế tại thời điểm bán; đổi giá sau này không được
// phép làm thay đổi đơn đã tạo.
type BookingSeat struct {
	DTO
	BookingId uint    `gorm:"not null;index" json:"bookingId"`
	SeatId    uint    `gorm:"not null" json:"seatId"`
	SeatRow   string  `json:"seatRow"`
	SeatCol   int     `json:"seatCol"`
	Price     float64 `gorm:"not null" json:"price"`
	Seat      Seat    `gorm:"foreignKey:SeatId" json:"-"`
}

type BookingCombo struct {
	DTO
	BookingId uint    `gorm:"not null;index" json:"bookingId"`
	ComboId   uint    `gorm:"not null" json:"comboId"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Price     float64 `gorm:"not null" json:"price"` // đơn giá tại thời điểm bán
	Combo     Combo   `gorm:"foreignKey:ComboId" json:"-"`
}

type ComboLineInput struct {
	ComboId  uint `json:"comboId" validate:"required,gt=0"`
	Quantity int  `json:"quantity" validate:"required,gt=0"`
}

type CreateBookingInput struct {
	ShowtimeCode  string           `json:"showtimeCode" validate:"required"`
	SeatIds       []uint           `json:"seatIds" validate:"required,min=1,dive,gt=0"`
	Combos        []ComboLineInput `json:"combos" validate:"omitempty,dive"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,oneof=CASH WALLET VNPAY"`
	SessionId     string           `json:"sessionId"`
	CustomerName  string           `json:"customerName"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email" validate:"omitempty,email"`
}

type CancelBookingInput struct {
	Reason    string `json:"reason"`
	SessionId string `json:"sessionId"`
}
