/**
 * @description
 * HTML rendering for outbound marketplace mail. Transaction notifications wrap
 * the per-status copy in a branded layout with a product summary card and the
 * Etherscan contract link; the OTP, welcome, and contact messages are simpler
 * one-shot bodies.
 */

package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
)

// ContractLink points at the marketplace escrow contract on Etherscan.
const ContractLink = "https://sepolia.etherscan.io/address/0xca5c9a13495152AB6390d0A26715fF56db404B36"

var transactionTmpl = template.Must(template.New("transaction").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; padding: 0; background-color: #f9fafb; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #1f2937; }
.container { max-width: 600px; margin: 40px auto; background: #ffffff; padding: 40px; border-radius: 12px; box-shadow: 0 4px 12px rgba(0, 0, 0, 0.08); }
.brand { display: flex; align-items: center; gap: 10px; margin-bottom: 30px; text-decoration: none; color: #1d4ed8; font-weight: 700; font-size: 24px; }
.title { font-size: 20px; font-weight: 600; margin-bottom: 20px; }
.content { font-size: 16px; line-height: 1.6; margin-bottom: 30px; }
.product { background-color: #f3f4f6; padding: 20px; border-radius: 8px; font-size: 15px; margin-bottom: 30px; }
.product b { display: inline-block; width: 80px; }
.footer { text-align: center; font-size: 13px; color: #6b7280; }
a { color: #1d4ed8; text-decoration: none; }
a:hover { text-decoration: underline; }
</style>
</head>
<body>
<div class="container">
  <div class="brand"><a href="/" class="brand-link"><div>Pyman</div></a></div>
  <div class="title">{{.Title}}</div>
  <div class="content">{{.Content}}</div>
  {{if .HasProduct}}<div class="product">
    <div><b>Title:</b> {{.ProductTitle}}</div>
    <div><b>Price:</b> {{.ProductPrice}} ETH</div>
    <div><b>Contract:</b> <a href="{{.ContractLink}}">View on Etherscan</a></div>
  </div>{{end}}
  <div class="footer"><p>Pyman &copy; {{.Year}}</p></div>
</div>
</body>
</html>`))

type transactionTmplData struct {
	Title        string
	Content      template.HTML
	HasProduct   bool
	ProductTitle string
	ProductPrice string
	ContractLink string
	Year         int
}

// RenderTransactionEmail wraps notification copy in the branded layout with a
// product card. The content string may contain the <br> markup from the copy
// table; everything else is escaped.
func RenderTransactionEmail(title, content string, product *domain.Product) (string, error) {
	data := transactionTmplData{
		Title:        title,
		Content:      template.HTML(content), // copy table output only, never user input
		ContractLink: ContractLink,
		Year:         time.Now().Year(),
	}
	if product != nil {
		data.HasProduct = true
		data.ProductTitle = product.Title
		data.ProductPrice = product.Price.String()
	}

	var buf bytes.Buffer
	if err := transactionTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderContactEmail wraps a contact-form message in the branded layout
// without a product card.
func RenderContactEmail(content string) (string, error) {
	var buf bytes.Buffer
	err := transactionTmpl.Execute(&buf, transactionTmplData{
		Content: template.HTML(content),
		Year:    time.Now().Year(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OTPEmail returns the subject and body for a registration code message.
func OTPEmail(code string) (subject, body string) {
	subject = "Pyman Ethereum Marketplace OTP"
	body = fmt.Sprintf("<h1>Your OTP: %s</h1><p>Use it to log in. It expires in 5 minutes.</p>", template.HTMLEscapeString(code))
	return subject, body
}

// WelcomeEmail returns the subject and body for the post-verification welcome
// message.
func WelcomeEmail() (subject, body string) {
	subject = "Signed Up!"
	body = fmt.Sprintf(`<p>Thanks for signing up to Pyman, a multivendor car marketplace built on the ethereum blockchain. See the contract at <a href="%s">Etherscan</a>.</p>
<p>If you are a wanna-be vendor, you can update your account to a vendor account on your account page.</p>`, ContractLink)
	return subject, body
}

// ContactContent assembles the relayed contact-form body.
func ContactContent(req domain.ContactRequest) string {
	phone := ""
	if req.Phone != "" {
		phone = "Phone: " + template.HTMLEscapeString(req.Phone) + "<br>"
	}
	return fmt.Sprintf(`Name: %s <br>
Email: %s <br>
%s
<br><br>
%s`,
		template.HTMLEscapeString(req.Name),
		template.HTMLEscapeString(req.Email),
		phone,
		template.HTMLEscapeString(req.Message),
	)
}
