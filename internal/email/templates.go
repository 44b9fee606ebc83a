package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/joao-fontenele/beverageshop/internal/domain"
)

const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateLowStockDigest    = "low_stock_digest"

	qrContentID = "order_qr"
	qrSize      = 256
)

var funcs = template.FuncMap{
	"vnd":       func(d decimal.Decimal) string { return domain.GroupThousands(d) + "đ" },
	"lineTotal": func(i domain.OrderItem) decimal.Decimal { return i.LineTotal() },
	"date":      func(t time.Time) string { return t.Format("02/01/2006 15:04") },
}

var orderConfirmationTmpl = template.Must(template.New(TemplateOrderConfirmation).Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Cảm ơn {{.CustomerName}} đã đặt hàng!</h2>
  <p>Mã đơn hàng: <strong>{{.Reference}}</strong><br>Ngày đặt: {{date .Timestamp}}</p>
  <table cellpadding="6" style="border-collapse: collapse; width: 100%;">
    <tr style="background: #f3f3f3;"><th align="left">Đồ uống</th><th>Số lượng</th><th align="right">Đơn giá</th><th align="right">Thành tiền</th></tr>
    {{- range .Items}}
    <tr><td>{{.BeverageName}}</td><td align="center">{{.Quantity}}</td><td align="right">{{vnd .Price}}</td><td align="right">{{vnd (lineTotal .)}}</td></tr>
    {{- end}}
  </table>
  {{- if .VoucherCode}}
  <p>Voucher {{.VoucherCode}}: -{{vnd .DiscountAmount}}</p>
  {{- end}}
  <p><strong>Tổng thanh toán: {{vnd .TotalAmount}}</strong></p>
  <p>Xuất trình mã QR khi nhận hàng:</p>
  <img src="cid:{{.QRContentID}}" alt="{{.Reference}}" width="200" height="200">
</body>
</html>`))

var lowStockDigestTmpl = template.Must(template.New(TemplateLowStockDigest).Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Báo cáo tồn kho {{date .GeneratedAt}}</h2>
  <h3>Hết hàng ({{len .OutOfStock}})</h3>
  <ul>
    {{- range .OutOfStock}}
    <li>{{.Name}} ({{.Brand}})</li>
    {{- else}}
    <li>Không có</li>
    {{- end}}
  </ul>
  <h3>Sắp hết hàng, còn không quá {{.Threshold}} ({{len .LowStock}})</h3>
  <ul>
    {{- range .LowStock}}
    <li>{{.Name}} ({{.Brand}}): còn {{.Stock}}</li>
    {{- else}}
    <li>Không có</li>
    {{- end}}
  </ul>
</body>
</html>`))

// OrderConfirmation renders the customer email for a placed order, with the order
// reference embedded as a QR code.
func OrderConfirmation(event domain.OrderPlacedEvent) (Message, error) {
	png, err := qrcode.Encode(event.Reference, qrcode.Medium, qrSize)
	if err != nil {
		return Message{}, fmt.Errorf("encode qr code: %w", err)
	}

	data := struct {
		domain.OrderPlacedEvent
		VoucherCode string
		QRContentID string
	}{
		OrderPlacedEvent: event,
		QRContentID:      qrContentID,
	}
	if event.VoucherCode != nil {
		data.VoucherCode = *event.VoucherCode
	}

	var body bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render order confirmation: %w", err)
	}

	return Message{
		To:       event.CustomerEmail,
		Subject:  fmt.Sprintf("Xác nhận đơn hàng %s", event.Reference),
		Template: TemplateOrderConfirmation,
		HTMLBody: body.String(),
		Inline: []Inline{{
			Name:        event.Reference + ".png",
			ContentID:   qrContentID,
			ContentType: "image/png",
			Data:        png,
		}},
	}, nil
}

type StockReport struct {
	GeneratedAt time.Time
	Threshold   int
	LowStock    []domain.Beverage
	OutOfStock  []domain.Beverage
}

func LowStockDigest(to string, report StockReport) (Message, error) {
	var body bytes.Buffer
	if err := lowStockDigestTmpl.Execute(&body, report); err != nil {
		return Message{}, fmt.Errorf("render low stock digest: %w", err)
	}

	subject := fmt.Sprintf("Báo cáo tồn kho: %d hết hàng, %d sắp hết", len(report.OutOfStock), len(report.LowStock))
	return Message{
		To:       to,
		Subject:  subject,
		Template: TemplateLowStockDigest,
		HTMLBody: body.String(),
	}, nil
}
