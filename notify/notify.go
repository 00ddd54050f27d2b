// Package notify đẩy sự kiện ghế realtime cho người xem sơ đồ ghế.
// Đây là kênh best-effort: publish lỗi chỉ được log, không bao giờ làm
// fail hay chặn nghiệp vụ giữ ghế / đặt vé.
package notify

import (
	"time"
)

const (
	SeatLocked   = "SEAT_LOCKED"
	SeatUnlocked = "SEAT_UNLOCKED"
	SeatSold     = "SEAT_SOLD"
)

type SeatEvent struct {
	ShowtimeID uint       `json:"showtimeId"`
	SeatID     uint       `json:"seatId"`
	State      string     `json:"state"`
	HeldBy     string     `json:"heldBy,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type Notifier interface {
	PublishSeatEvent(ev SeatEvent)
}

// Nop dùng khi không cấu hình redis (và trong test).
type Nop struct{}

func (Nop) PublishSeatEvent(SeatEvent) {}
