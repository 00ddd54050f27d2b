package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"cinema_booking/model"
	"cinema_booking/utils"
)

func SeedData(db *gorm.DB) {
	seatTypes := []model.SeatType{
		{Type: "STANDARD", PriceModifier: 1},
		{Type: "PREMIUM", PriceModifier: 1.2},
		{Type: "DOUBLE", PriceModifier: 2},
	}
	for i := range seatTypes {
		if err := db.Where(model.SeatType{Type: seatTypes[i].Type}).FirstOrCreate(&seatTypes[i]).Error; err != nil {
			log.Println("failed to seed seat type:", seatTypes[i].Type, "error:", err)
		}
	}

	room := model.Room{Name: "Phòng 1", RoomNumber: 1, Capacity: utils.Ptr(80)}
	if err := db.Where(model.Room{RoomNumber: 1}).FirstOrCreate(&room).Error; err != nil {
		log.Println("failed to seed room:", err)
		return
	}

	// lưới ghế 8 hàng x 10 cột: 2 hàng cuối PREMIUM, hàng cuối cùng DOUBLE
	rows := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, row := range rows {
		seatType := seatTypes[0]
		if i >= 6 {
			seatType = seatTypes[1]
		}
		if i == len(rows)-1 {
			seatType = seatTypes[2]
		}
		for col := 1; col <= 10; col++ {
			seat := model.Seat{Row: row, Column: col, RoomId: room.ID, SeatTypeId: seatType.ID}
			if err := db.Where(model.Seat{Row: row, Column: col, RoomId: room.ID}).FirstOrCreate(&seat).Error; err != nil {
				log.Println("failed to seed seat:", row, col, "error:", err)
			}
		}
	}

	now := time.Now()
	for i := 1; i <= 3; i++ {
		start := now.Add(time.Duration(i*4) * time.Hour).Truncate(time.Hour)
		showtime := model.Showtime{
			PublicCode: fmt.Sprintf("ST-%s-%d", now.Format("20060102"), i),
			StartTime:  start,
			EndTime:    start.Add(2 * time.Hour),
			Price:      90000,
			Status:     "OPEN",
			RoomId:     room.ID,
		}
		if err := db.Where(model.Showtime{PublicCode: showtime.PublicCode}).FirstOrCreate(&showtime).Error; err != nil {
			log.Println("failed to seed showtime:", showtime.PublicCode, "error:", err)
		}
	}

	combos := []model.Combo{
		{Name: "Combo bắp nước", Price: 50000, IsActive: true},
		{Name: "Combo gia đình", Price: 120000, IsActive: true},
	}
	for i := range combos {
		if err := db.Where(model.Combo{Name: combos[i].Name}).FirstOrCreate(&combos[i]).Error; err != nil {
			log.Println("failed to seed combo:", combos[i].Name, "error:", err)
		}
	}

	customer := model.Customer{Email: "demo@example.com", Phone: "0900000000", UserName: "demo", IsActive: true}
	if err := db.Where(model.Customer{Email: customer.Email}).FirstOrCreate(&customer).Error; err != nil {
		log.Println("failed to seed customer:", err)
		return
	}
	wallet := model.Wallet{CustomerID: customer.ID, Balance: 500000}
	if err := db.Where(model.Wallet{CustomerID: customer.ID}).FirstOrCreate(&wallet).Error; err != nil {
		log.Println("failed to seed wallet:", err)
	}
}
