package model

import "time"

type Showtime struct {
	DTO
	PublicCode string    `gorm:"size:16;uniqueIndex" json:"publicCode"`
	StartTime  time.Time `validate:"required" json:"start"`
	EndTime    time.Time `validate:"required" json:"end"`
	Price      float64   `json:"price"` // giá vé cơ bản, nhân với modifier loại ghế
	Status     string    `json:"status"`
	RoomId     uint      `json:"roomId"`
	Room       Room      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;foreignKey:RoomId" json:"Room"`
}
