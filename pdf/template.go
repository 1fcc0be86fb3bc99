package pdf

import (
	"bytes"
	"html/template"
	"strconv"
	"time"

	"invoicing-backend/models"
	"invoicing-backend/utils"
)

// documentTmpl is the invoice print layout. It receives finished strings
// only; all money formatting happens before template execution.
var documentTmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; color: #222; margin: 40px; }
  h1 { font-size: 22px; margin-bottom: 0; }
  .muted { color: #777; font-size: 12px; }
  .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
  table.items { width: 100%; border-collapse: collapse; margin-top: 24px; }
  table.items th { text-align: left; border-bottom: 2px solid #222; padding: 6px 4px; font-size: 12px; text-transform: uppercase; }
  table.items td { border-bottom: 1px solid #ddd; padding: 8px 4px; font-size: 13px; }
  td.num, th.num { text-align: right; }
  .totals { margin-top: 16px; margin-left: auto; width: 260px; font-size: 13px; }
  .totals td { padding: 4px; }
  .totals tr.grand td { border-top: 2px solid #222; font-weight: bold; }
  .final { margin-top: 40px; font-size: 12px; color: #555; }
</style>
</head>
<body>
  <div class="header">
    <div>
      <h1>{{.Company.Name}}</h1>
      <div class="muted">{{.Company.Address}}</div>
      {{if .Company.GST}}<div class="muted">GST: {{.Company.GST}}</div>{{end}}
      {{if .Company.Email}}<div class="muted">{{.Company.Email}}</div>{{end}}
      {{if .Company.Phone}}<div class="muted">{{.Company.Phone}}</div>{{end}}
    </div>
    <div>
      <h1>Invoice {{.Number}}</h1>
      <div class="muted">Issued {{.IssueDate}}</div>
    </div>
  </div>

  {{if .Client}}
  <div>
    <strong>Billed to</strong>
    <div>{{.Client.Name}}</div>
    {{if .Client.Address}}<div class="muted">{{.Client.Address}}</div>{{end}}
    {{if .Client.Email}}<div class="muted">{{.Client.Email}}</div>{{end}}
  </div>
  {{end}}

  <table class="items">
    <tr><th>Service</th><th>Description</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Amount</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{.Description}}</td>
      <td class="num">{{.Quantity}}</td>
      <td class="num">{{.Price}}</td>
      <td class="num">{{.Amount}}</td>
    </tr>
    {{end}}
  </table>

  <table class="totals">
    <tr><td>Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
    <tr><td>Tax</td><td class="num">{{.Tax}}</td></tr>
    <tr class="grand"><td>Total</td><td class="num">{{.Total}}</td></tr>
  </table>

  {{if .FinalText}}<div class="final">{{.FinalText}}</div>{{end}}
</body>
</html>
`))

type documentCompany struct {
	Name    string
	Address string
	GST     string
	Email   string
	Phone   string
}

type documentClient struct {
	Name    string
	Address string
	Email   string
}

type documentItem struct {
	Name        string
	Description string
	Quantity    string
	Price       string
	Amount      string
}

type documentData struct {
	Number    string
	IssueDate string
	Company   documentCompany
	Client    *documentClient
	Items     []documentItem
	Subtotal  string
	Tax       string
	Total     string
	FinalText string
}

// BuildDocument renders the invoice print HTML from the invoice, its
// preloaded client and items, and the company settings.
func BuildDocument(inv *models.Invoice, settings *models.Setting) (string, error) {
	data := documentData{
		Number:    inv.InvoiceNumber,
		IssueDate: time.Time(inv.IssueDate).Format("2006-01-02"),
		Subtotal:  utils.Format2(inv.Subtotal),
		Tax:       utils.Format2(inv.Tax),
		Total:     utils.Format2(inv.Total),
	}
	if settings != nil {
		data.Company = documentCompany{
			Name:    settings.CompanyName,
			Address: settings.CompanyAddress,
			GST:     settings.CompanyGST,
			Email:   settings.CompanyEmail,
			Phone:   settings.CompanyPhone,
		}
		data.FinalText = settings.FinalText
	}
	if inv.Client != nil {
		cl := documentClient{Name: inv.Client.Name, Address: inv.Client.Address}
		if inv.Client.Email != nil {
			cl.Email = *inv.Client.Email
		}
		data.Client = &cl
	}

	for _, item := range inv.Items {
		di := documentItem{Description: item.Description}
		if item.Service != nil {
			di.Name = item.Service.Name
		}
		qty, price := 0, 0.0
		if item.Quantity != nil {
			qty = *item.Quantity
		}
		if item.Price != nil {
			price = *item.Price
		}
		di.Quantity = strconv.Itoa(qty)
		di.Price = utils.Format2(price)
		di.Amount = utils.Format2(price * float64(qty))
		data.Items = append(data.Items, di)
	}

	var buf bytes.Buffer
	if err := documentTmpl.Execute(&buf, data); err != nil {
		return "", &RenderError{Msg: "execute invoice template", Err: err}
	}
	return buf.String(), nil
}
