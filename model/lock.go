package model

import "time"

// SeatLock là lease giữ ghế tạm thời cho một (suất chiếu, ghế). Tối đa một
// lock còn sống cho mỗi cặp tại mọi thời điểm - đây là bất biến trung tâm
// của toàn bộ hệ thống. Lock có expires_at <= now coi như không tồn tại,
// kể cả khi chưa bị xóa vật lý.
type SeatLock struct {
	DTO
	ShowtimeId uint      `gorm:"uniqueIndex:idx_seat_locks_showtime_seat;not null" json:"showtimeId"`
	SeatId     uint      `gorm:"uniqueIndex:idx_seat_locks_showtime_seat;not null" json:"seatId"`
	CustomerId *uint     `gorm:"default:null" json:"customerId,omitempty"`
	Session    string    `gorm:"size:64;not null" json:"session"`
	ExpiresAt  time.Time `gorm:"not null" json:"expiresAt"`
	Showtime   Showtime  `gorm:"foreignKey:ShowtimeId" json:"-"`
	Seat       Seat      `gorm:"foreignKey:SeatId" json:"-"`
}

func (l SeatLock) Holder() Holder {
	return Holder{CustomerID: l.CustomerId, Session: l.Session}
}

type HoldSeatsInput struct {
	SeatIds   []uint `json:"seatIds" validate:"required,min=1,dive,gt=0"`
	SessionId string `json:"sessionId"`
}

