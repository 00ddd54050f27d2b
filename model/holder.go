package model

import "fmt"

// Holder là danh tính giữ ghế / sở hữu đơn: khách vãng lai chỉ có session
// token, khách đăng nhập có thêm customer id. Mọi so sánh quyền sở hữu
// (acquire/release/consume/cancel) đều đi qua Same - không so sánh tay ở
// từng chỗ gọi.
type Holder struct {
	CustomerID *uint  `json:"customerId,omitempty"`
	Session    string `json:"session"`
}

func GuestHolder(session string) Holder {
	return Holder{Session: session}
}

func CustomerHolder(customerID uint, session string) Holder {
	return Holder{CustomerID: &customerID, Session: session}
}

func (h Holder) Authenticated() bool { return h.CustomerID != nil }

// Same: hai holder đã đăng nhập so theo customer id, còn lại so theo session.
func (h Holder) Same(other Holder) bool {
	if h.CustomerID != nil && other.CustomerID != nil {
		return *h.CustomerID == *other.CustomerID
	}
	return h.Session != "" && h.Session == other.Session
}

// Label dùng cho payload realtime, giống kiểu "USER_12" / "GUEST_xxx" cũ
func (h Holder) Label() string {
	if h.CustomerID != nil {
		return fmt.Sprintf("USER_%d", *h.CustomerID)
	}
	return "GUEST_" + h.Session
}
