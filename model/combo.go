package model

// Combo là sản phẩm bán kèm (bắp nước...); giá hiện hành được chụp vào
// BookingCombo lúc checkout.
type Combo struct {
	DTO
	Name     string  `gorm:"not null" validate:"required" json:"name"`
	Price    float64 `gorm:"not null" validate:"required,gt=0" json:"price"`
	IsActive bool    `gorm:"default:true" json:"isActive"`
}
