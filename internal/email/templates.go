package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// ShipmentNotice is what a customer is told once a label covers their orders.
type ShipmentNotice struct {
	Name           string
	OrderIDs       []string
	TrackingNumber string
	Carrier        string
	Service        string
}

func ShipmentNoticeSubject(n ShipmentNotice) string {
	return fmt.Sprintf("Your order is ready to ship (tracking %s)", n.TrackingNumber)
}

var shipmentNotice = template.Must(template.New("shipment").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Your order is on its way</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hi {{if .Name}}{{.Name}}{{else}}there{{end}}, a shipping label was created for your purchase.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Tracking number{{if .Carrier}} ({{upper .Carrier}}{{if .Service}} {{.Service}}{{end}}){{end}}</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.TrackingNumber}}</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">{{if gt (len .OrderIDs) 1}}Orders in this parcel{{else}}Order{{end}}</h2>
		<ul>
		{{- range .OrderIDs}}
			<li style="font-family: monospace;">{{.}}</li>
		{{- end}}
		</ul>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. Tracking can take up to a day to show the first scan.
		</p>
	</div>
</body>
</html>`))

// BuildShipmentNoticeBody renders the HTML body of a shipment notice.
func BuildShipmentNoticeBody(n ShipmentNotice) (string, error) {
	var buf bytes.Buffer
	if err := shipmentNotice.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render shipment notice: %w", err)
	}
	return buf.String(), nil
}
