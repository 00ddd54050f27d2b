package booking

import (
	"errors"
	"time"
)

// CancelCutoff: không còn tự hủy được khi suất chiếu bắt đầu trong vòng
// 30 phút; cũng là mốc sweeper dọn đơn CASH chưa chốt.
const CancelCutoff = 30 * time.Minute

var (
	ErrReservationLost       = errors.New("seat reservation lost")
	ErrInsufficientBalance   = errors.New("wallet balance insufficient")
	ErrCancelWindowClosed    = errors.New("cancel window closed")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrNotCancellable        = errors.New("booking not cancellable")
	ErrNotPayable            = errors.New("booking not awaiting gateway payment")
	ErrWalletRequiresAccount = errors.New("wallet payment requires an account")
)
