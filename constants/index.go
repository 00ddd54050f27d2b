package constants

const (
	ERROR_INPUT              = "Dữ liệu không hợp lệ"
	DATA_INPUT_IS_NOT_NUMBER = "Tham số phải là số"
	ERROR_INTERNAL_ERROR     = "Lỗi hệ thống, vui lòng thử lại sau"
	ERROR_CREATE             = "Không thể tạo bản ghi"
	NOT_FOUND                = "Không tìm thấy dữ liệu"
	UNAUTHORIZED             = "Vui lòng đăng nhập"

	SEAT_SOLD            = "Ghế đã được bán"
	SEAT_HELD_BY_OTHER   = "Ghế đang được người khác giữ"
	RESERVATION_LOST     = "Ghế giữ chỗ đã hết hạn, vui lòng chọn lại"
	CANCEL_WINDOW_CLOSED = "Quá muộn để hủy vé"
	INSUFFICIENT_BALANCE = "Số dư ví không đủ"
	GATEWAY_UNAVAILABLE  = "Cổng thanh toán tạm thời không khả dụng"
)
