package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"storefront/internal/models"
)

// Order email kinds. Status kinds match the order status values.
const (
	MailOrderPlaced = "placed"
)

var orderSubjects = map[string]string{
	MailOrderPlaced:              "We received your order #%s",
	models.OrderStatusConfirm:    "Your order #%s is confirmed",
	models.OrderStatusProcessing: "Your order #%s is being prepared",
	models.OrderStatusDelivering: "Your order #%s is on its way",
	models.OrderStatusDelivered:  "Your order #%s was delivered",
	models.OrderStatusCancel:     "Your order #%s was canceled",
	models.OrderStatusReturn:     "Return received for order #%s",
}

var orderHeadlines = map[string]string{
	MailOrderPlaced:              "Thanks for your order!",
	models.OrderStatusConfirm:    "Good news, your order is confirmed.",
	models.OrderStatusProcessing: "We are preparing your items.",
	models.OrderStatusDelivering: "Your parcel has been handed to our courier.",
	models.OrderStatusDelivered:  "Your parcel was delivered. Enjoy!",
	models.OrderStatusCancel:     "Your order has been canceled.",
	models.OrderStatusReturn:     "We have received your return.",
}

var orderTmpl = template.Must(template.New("order").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!doctype html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>{{.Headline}}</h2>
<p>Hi {{.Order.ShippingInfo.Name}},</p>
<p>Order <strong>#{{.Order.OrderID}}</strong> is now <strong>{{.Order.OrderStatus}}</strong>.</p>
{{if .Order.TrackingCode}}<p>Tracking code: <strong>{{.Order.TrackingCode}}</strong></p>{{end}}
<table cellpadding="6" style="border-collapse:collapse">
{{range .Order.OrderItems}}<tr><td>{{.Name}}{{if .Size}} ({{.Size.Name}}){{end}}{{if .Color}} {{.Color.Name}}{{end}}</td><td>x{{.Quantity}}</td><td align="right">{{money .Subtotal}}</td></tr>
{{end}}<tr><td colspan="2">Items</td><td align="right">{{money .Order.ItemsPrice}}</td></tr>
<tr><td colspan="2">Delivery</td><td align="right">{{money .Order.DeliveryPrice}}</td></tr>
{{if .Order.CouponDiscount}}<tr><td colspan="2">Coupon</td><td align="right">-{{money .Order.CouponDiscount}}</td></tr>{{end}}
<tr><td colspan="2"><strong>Total</strong></td><td align="right"><strong>{{money .Order.TotalPrice}}</strong></td></tr>
{{if .Order.CashOnDelivery}}<tr><td colspan="2">Due on delivery</td><td align="right">{{money .Order.CashOnDelivery}}</td></tr>{{end}}
</table>
{{if .Link}}<p><a href="{{.Link}}">View your order</a></p>{{end}}
</body></html>`))

// OrderMail renders the customer email for an order event. It reports false
// when the order has no email address or the kind has no template.
func OrderMail(kind string, order models.Order, storeURL string) (Mail, bool, error) {
	to := order.ShippingInfo.Email
	if to == "" {
		to = order.UserData.Email
	}
	subject, ok := orderSubjects[kind]
	if !ok || strings.TrimSpace(to) == "" {
		return Mail{}, false, nil
	}

	link := ""
	if base := strings.TrimRight(storeURL, "/"); base != "" {
		link = base + "/orders/" + order.OrderID
	}

	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, struct {
		Headline string
		Order    models.Order
		Link     string
	}{orderHeadlines[kind], order, link})
	if err != nil {
		return Mail{}, false, fmt.Errorf("notify: render %s mail: %w", kind, err)
	}

	return Mail{To: to, Subject: fmt.Sprintf(subject, order.OrderID), HTML: buf.String()}, true, nil
}
