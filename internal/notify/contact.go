package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Contact is a stored contact submission.
type Contact struct {
	DocumentID string
	Name       string
	Email      string
	Phone      string
	EventType  string
	EventDate  string
	Message    string
}

// Only the structure emitted by ContactMessage survives in the HTML body.
var bodyPolicy = bluemonday.NewPolicy().AllowElements("h2", "p", "strong", "br")

// ContactMessage renders the booking enquiry notification.
func ContactMessage(from, to, subject string, c Contact) Message {
	or := func(v, fallback string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return fallback
	}
	fields := []struct{ label, value string }{
		{"Nombre", or(c.Name, "-")},
		{"Email", or(c.Email, "-")},
		{"Teléfono", or(c.Phone, "No proporcionado")},
		{"Tipo de evento", or(c.EventType, "No especificado")},
		{"Fecha del evento", or(c.EventDate, "No especificada")},
		{"Mensaje", or(c.Message, "-")},
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Nueva consulta de: %s (%s)\n\n", or(c.Name, "-"), or(c.Email, "-"))
	for _, f := range fields {
		fmt.Fprintf(&text, "%s: %s\n", f.label, f.value)
	}

	var body strings.Builder
	body.WriteString("<h2>" + html.EscapeString(subject) + "</h2>\n")
	for _, f := range fields {
		value := strings.ReplaceAll(html.EscapeString(f.value), "\n", "<br>")
		fmt.Fprintf(&body, "<p><strong>%s:</strong> %s</p>\n", html.EscapeString(f.label), value)
	}

	return Message{
		From:    from,
		To:      to,
		Subject: subject,
		Text:    strings.TrimRight(text.String(), "\n"),
		HTML:    bodyPolicy.Sanitize(body.String()),
	}
}
