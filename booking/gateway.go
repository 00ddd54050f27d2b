package booking

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"cinema_booking/config"
	"cinema_booking/model"
)

// PaymentGateway là cổng thanh toán ngoài; implementation thật ký HMAC và
// redirect sang VNPay, test thay bằng stub.
type PaymentGateway interface {
	PaymentURL(req model.PaymentRequest) (string, error)
	VerifyCallback(query url.Values) model.PaymentResult
	VerifyIPN(query url.Values) model.PaymentResult
}

// VNPay Service
type VNPay struct {
	Config model.GatewayConfig
	clock  clockwork.Clock
}

func NewVNPay(clock clockwork.Clock) *VNPay {
	return &VNPay{
		Config: model.GatewayConfig{
			TmnCode:    config.Config("VNP_TMNCODE"),
			HashSecret: config.Config("VNP_HASHSECRET"),
			BaseURL:    config.Config("VNP_URL"),
			ReturnURL:  config.Config("APP_URL") + "/vnpay/return",
			IPNURL:     config.Config("APP_URL") + "/vnpay/ipn",
		},
		clock: clock,
	}
}

// Tạo Payment URL
func (v *VNPay) PaymentURL(req model.PaymentRequest) (string, error) {
	now := v.clock.Now()

	params := url.Values{}
	params.Add("vnp_Version", "2.1.0")
	params.Add("vnp_Command", "pay")
	params.Add("vnp_TmnCode", v.Config.TmnCode)
	params.Add("vnp_Amount", strconv.FormatInt(req.Amount*100, 10)) // VND * 100
	params.Add("vnp_CreateDate", now.Format("20060102150405"))
	params.Add("vnp_CurrCode", "VND")
	params.Add("vnp_IpAddr", req.IPAddr)
	params.Add("vnp_Locale", "vn")
	params.Add("vnp_OrderInfo", url.QueryEscape(req.OrderInfo))
	params.Add("vnp_OrderType", "other")
	params.Add("vnp_ReturnUrl", v.Config.ReturnURL)
	params.Add("vnp_TxnRef", req.TxnRef)
	params.Add("vnp_ExpireDate", now.Add(15*time.Minute).Format("20060102150405"))

	// Sort & Hash
	query := params.Encode()
	hash := v.generateHash(query)
	fullQuery := query + "&vnp_SecureHash=" + hash

	return v.Config.BaseURL + "?" + fullQuery, nil
}

// Verify Return URL (Callback)
func (v *VNPay) VerifyCallback(query url.Values) model.PaymentResult {
	secureHash := query.Get("vnp_SecureHash")
	query.Del("vnp_SecureHash")

	expectedHash := v.generateHash(query.Encode())
	if !hmac.Equal([]byte(secureHash), []byte(expectedHash)) {
		return model.PaymentResult{IsSuccess: false, Message: "Invalid hash"}
	}

	txnRef := query.Get("vnp_TxnRef")
	if query.Get("vnp_ResponseCode") == "00" {
		amount, _ := strconv.ParseInt(query.Get("vnp_Amount"), 10, 64)
		return model.PaymentResult{
			IsSuccess: true,
			TxnRef:    txnRef,
			Amount:    amount / 100,
			Status:    "PAID",
		}
	}

	return model.PaymentResult{IsSuccess: false, TxnRef: txnRef, Message: "Payment failed"}
}

// Verify IPN (Server-to-Server)
func (v *VNPay) VerifyIPN(query url.Values) model.PaymentResult {
	secureHash := query.Get("vnp_SecureHash")
	query.Del("vnp_SecureHash")

	expectedHash := v.generateHash(query.Encode())
	if !hmac.Equal([]byte(secureHash), []byte(expectedHash)) {
		return model.PaymentResult{IsSuccess: false, Message: "Invalid IPN hash"}
	}

	txnRef := query.Get("vnp_TxnRef")
	if query.Get("vnp_ResponseCode") == "00" {
		return model.PaymentResult{
			IsSuccess: true,
			TxnRef:    txnRef,
			Status:    "PAID",
		}
	}

	return model.PaymentResult{IsSuccess: false, TxnRef: txnRef, Message: "IPN failed"}
}

func (v *VNPay) generateHash(data string) string {
	h := hmac.New(sha512.New, []byte(v.Config.HashSecret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
