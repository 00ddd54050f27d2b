package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"strconv"
	"strings"

	"gopkg.in/gomail.v2"

	"cinema_booking/config"
	"cinema_booking/model"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Xác nhận đặt vé #{{.BookingCode}}</h2>
<p>Suất chiếu: {{.Showtime}}</p>
<p>Ghế: {{.Seats}}</p>
<p>Tổng tiền: {{.TotalAmount}} VND</p>
<p>Phương thức thanh toán: {{.PaymentMethod}}</p>
<p>Đưa mã QR dưới đây tại quầy soát vé:</p>
<img src="data:image/png;base64,{{.QRCode}}" alt="QR check-in"/>
`))

type confirmationData struct {
	BookingCode   string
	Showtime      string
	Seats         string
	TotalAmount   float64
	PaymentMethod string
	QRCode        string
}

// Mailer gửi email xác nhận đặt vé kèm QR check-in.
type Mailer struct{}

func NewMailer() *Mailer {
	return &Mailer{}
}

// SendBookingConfirmation gửi async để không delay response; đơn không có
// email thì bỏ qua.
func (m *Mailer) SendBookingConfirmation(b *model.Booking) {
	if b.Email == "" {
		return
	}
	go func() {
		qr, err := CheckInQRCode(b.PublicCode)
		if err != nil {
			log.Printf("Lỗi tạo QR cho đơn %s: %v", b.PublicCode, err)
			return
		}

		seats := make([]string, 0, len(b.Seats))
		for _, s := range b.Seats {
			seats = append(seats, fmt.Sprintf("%s%d", s.SeatRow, s.SeatCol))
		}

		var body bytes.Buffer
		err = confirmationTmpl.Execute(&body, confirmationData{
			BookingCode:   b.PublicCode,
			Showtime:      b.Showtime.StartTime.Format("15:04 02/01/2006"),
			Seats:         strings.Join(seats, ", "),
			TotalAmount:   b.TotalAmount,
			PaymentMethod: b.PaymentMethod,
			QRCode:        base64.StdEncoding.EncodeToString(qr),
		})
		if err != nil {
			log.Printf("Lỗi render template email: %v", err)
			return
		}

		port, _ := strconv.Atoi(config.Config("SMTP_PORT"))

		msg := gomail.NewMessage()
		msg.SetHeader("From", config.Config("SMTP_FROM"))
		msg.SetHeader("To", b.Email)
		msg.SetHeader("Subject", "Xác nhận đặt vé #"+b.PublicCode)
		msg.SetBody("text/html", body.String())

		d := gomail.NewDialer(config.Config("SMTP_HOST"), port, config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"))
		if err := d.DialAndSend(msg); err != nil {
			log.Printf("Lỗi gửi email: %v", err)
		}
	}()
}
