package helper

// SeatPrice = giá gốc của suất chiếu nhân hệ số loại ghế. Hệ số 0 (dữ
// liệu chưa gán loại ghế) tính như ghế thường.
func SeatPrice(base, modifier float64) float64 {
	if modifier <= 0 {
		modifier = 1
	}
	return base * modifier
}
