package model

const (
	PaymentRowPending = "PENDING"
	PaymentRowSuccess = "SUCCESS"
	PaymentRowFailed  = "FAILED"
)

// Payment là bản ghi đối soát với cổng thanh toán ngoài. OrderRef là khóa
// idempotency: callback bất đồng bộ tra ngược về đúng một đơn qua mã này.
type Payment struct {
	DTO
	BookingId uint    `gorm:"not null;index" json:"bookingId"`
	Amount    float64 `gorm:"not null" json:"amount"`
	OrderRef  string  `gorm:"unique;size:64" json:"orderRef"`
	Status    string  `gorm:"default:PENDING" json:"status"`
	Method    string  `json:"method"`

	Booking Booking `gorm:"foreignKey:BookingId" json:"-"`
}

type CreatePaymentInput struct {
	BookingCode string `json:"bookingCode" validate:"required"`
	SessionId   string `json:"sessionId"`
}

type GatewayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
	IPNURL     string
}

type PaymentRequest struct {
	Amount    int64  `json:"amount"`
	OrderInfo string `json:"orderInfo"`
	TxnRef    string `json:"txnRef"`
	IPAddr    string `json:"ipAddr"`
}

type PaymentResult struct {
	IsSuccess bool   `json:"isSuccess"`
	TxnRef    string `json:"txnRef"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"` // 00=Success
	Message   string `json:"message"`
}
