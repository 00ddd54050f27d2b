package model

import "fmt"

type SeatType struct {
	DTO
	Type          string  `gorm:"not null" validate:"required" json:"type"` // STANDARD PREMIUM DOUBLE
	PriceModifier float64 `json:"priceModifier"`
}

type Seat struct {
	DTO
	Row        string   `gorm:"not null" validate:"required" json:"row"`          // e.g., "A", "B"
	Column     int      `gorm:"not null" validate:"required,min=1" json:"column"` // e.g., 1, 2
	RoomId     uint     `json:"roomId"`
	Room       Room     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	SeatTypeId uint     `json:"seatTypeId"`
	SeatType   SeatType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"SeatType"`
}

func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Column)
}

type Room struct {
	DTO
	Name       string `gorm:"not null" validate:"required" json:"name"`
	RoomNumber uint   `json:"roomNumber" validate:"required,min=1"`
	Capacity   *int   `json:"capacity"`
	Seats      []Seat `gorm:"foreignKey:RoomId;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"seats"`
}
