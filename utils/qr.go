package utils

import (
	"github.com/skip2/go-qrcode"
)

// máy quét ở quầy đọc QR từ màn hình điện thoại nên cố định mức sửa lỗi High
const checkInQRSize = 256

// CheckInQRCode mã hóa mã đơn thành PNG để soát vé tại quầy.
func CheckInQRCode(bookingCode string) ([]byte, error) {
	return qrcode.Encode(bookingCode, qrcode.High, checkInQRSize)
}
