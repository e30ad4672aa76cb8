package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"teeshop/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice = errors.New("order price is not a decimal amount")
)

// Snapshot is everything printed on an invoice, frozen at render time
type Snapshot struct {
	OrderID       uuid.UUID
	Date          time.Time
	CustomerName  string
	Phone         string
	Email         string
	Address       string
	DesignName    string
	DesignCode    string
	Size          string
	Quantity      int
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	PaymentName   string
	PaymentNumber string
	Status        domain.Status
}

// NewSnapshot copies the invoice fields from an order
func NewSnapshot(o *domain.Order, payment domain.PaymentInfo, at time.Time) (Snapshot, error) {
	price, err := decimal.NewFromString(o.DesignPrice)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidPrice, o.DesignPrice)
	}

	date := at
	if o.CreatedAt != nil {
		date = *o.CreatedAt
	}

	quantity := o.QuantityValue()
	return Snapshot{
		OrderID:       o.ID,
		Date:          date,
		CustomerName:  o.Name,
		Phone:         o.Phone,
		Email:         o.Email,
		Address:       o.Address(),
		DesignName:    o.DesignName,
		DesignCode:    o.DesignCode,
		Size:          o.Size,
		Quantity:      quantity,
		UnitPrice:     price,
		Total:         price.Mul(decimal.NewFromInt(int64(quantity))),
		PaymentName:   payment.Name,
		PaymentNumber: payment.Number,
		Status:        o.Status,
	}, nil
}

// Document is a rendered invoice
type Document struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Renderer turns a snapshot into a document
type Renderer interface {
	Render(ctx context.Context, s Snapshot) (*Document, error)
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "₹" + d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02-01-2006") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.OrderID}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #222; }
  h1 { text-align: center; letter-spacing: 2px; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  th, td { border-bottom: 1px solid #ddd; padding: 8px; text-align: left; }
  .total td { font-weight: bold; }
  .meta p { margin: 4px 0; }
</style>
</head>
<body>
<h1>T-SHIRT STORE INVOICE</h1>
<div class="meta">
  <p>Order ID: {{.OrderID}}</p>
  <p>Date: {{date .Date}}</p>
  <p>Status: {{.Status}}</p>
</div>
<div class="meta">
  <p>Customer Name: {{.CustomerName}}</p>
  <p>Phone: {{.Phone}}</p>
  <p>Email: {{.Email}}</p>
  <p>Address: {{.Address}}</p>
</div>
<table>
  <tr><th>Product</th><th>Code</th><th>Size</th><th>Qty</th><th>Unit price</th><th>Amount</th></tr>
  <tr><td>{{.DesignName}}</td><td>{{.DesignCode}}</td><td>{{.Size}}</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{money .Total}}</td></tr>
  <tr class="total"><td colspan="5">Amount Paid</td><td>{{money .Total}}</td></tr>
</table>
{{if .PaymentName}}<p>Paid to: {{.PaymentName}}{{if .PaymentNumber}} ({{.PaymentNumber}}){{end}}</p>{{end}}
<p>Thank you for your order!</p>
</body>
</html>
`))

// RenderHTML fills the invoice template
func RenderHTML(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, s); err != nil {
		return nil, fmt.Errorf("failed to execute invoice template: %w", err)
	}
	return buf.Bytes(), nil
}

// HTMLRenderer serves the invoice as a printable web page
type HTMLRenderer struct{}

func (HTMLRenderer) Render(_ context.Context, s Snapshot) (*Document, error) {
	html, err := RenderHTML(s)
	if err != nil {
		return nil, err
	}
	return &Document{
		ContentType: "text/html; charset=utf-8",
		Filename:    fileName(s.OrderID, ".html"),
		Data:        html,
	}, nil
}

func fileName(id uuid.UUID, ext string) string {
	return "invoice_" + id.String() + ext
}
