package notifications

import (
	"bytes"
	"html/template"
)

const confirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hello,</p>
  <p>Thanks for signing up to the {{.Product}} case study library.</p>
  <p>Please confirm {{.Email}} by following the link below:</p>
  <p><a href="{{.Link}}">Confirm my email</a></p>
  <p>If you did not sign up, you can ignore this message.</p>
</body>
</html>`

var confirmationTmpl = template.Must(template.New("signup_confirmation").Parse(confirmationTemplate))

type confirmationData struct {
	Product string
	Email   string
	Link    string
}

func buildConfirmationHTML(product, email, link string) (string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, confirmationData{Product: product, Email: email, Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
