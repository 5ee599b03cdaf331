package contact

import (
	"fmt"
	"net/url"
	"strings"
)

// Spanish copy used when no translation bundle is wired.
var spanishMessages = map[string]string{
	msgRequired:                "Por favor completa todos los campos obligatorios.",
	msgInvalidEmail:            "Por favor ingresa un email válido.",
	msgSuccess:                 "¡Mensaje enviado exitosamente! Te contactaremos pronto.",
	msgError:                   "Error al enviar el mensaje. Por favor intenta nuevamente.",
	"contact.mailto_subject":   "Solicitud de cotización - %s",
	"contact.default_event":    "Evento",
	"contact.not_provided":     "No proporcionado",
	"contact.not_specified":    "No especificado",
	"contact.not_specified_f":  "No especificada",
	"contact.label.name":       "Nombre",
	"contact.label.email":      "Email",
	"contact.label.phone":      "Teléfono",
	"contact.label.event_type": "Tipo de evento",
	"contact.label.event_date": "Fecha del evento",
	"contact.label.message":    "Mensaje",
}

type defaultMessages struct{}

func (defaultMessages) T(_, key string) string {
	if v, ok := spanishMessages[key]; ok {
		return v
	}
	return key
}

// MailtoURL builds the mailto link that carries the whole enquiry as subject
// and body, for when the API cannot take the submission.
func MailtoURL(recipient string, form Form, messages Translator, lang string) string {
	if messages == nil {
		messages = defaultMessages{}
	}
	t := func(key string) string { return messages.T(lang, key) }
	or := func(v, fallback string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return fallback
	}

	subject := fmt.Sprintf(t("contact.mailto_subject"), or(form.EventType, t("contact.default_event")))

	var body strings.Builder
	fmt.Fprintf(&body, "%s: %s\n", t("contact.label.name"), strings.TrimSpace(form.Name))
	fmt.Fprintf(&body, "%s: %s\n", t("contact.label.email"), strings.TrimSpace(form.Email))
	fmt.Fprintf(&body, "%s: %s\n", t("contact.label.phone"), or(form.Phone, t("contact.not_provided")))
	fmt.Fprintf(&body, "%s: %s\n", t("contact.label.event_type"), or(form.EventType, t("contact.not_specified")))
	fmt.Fprintf(&body, "%s: %s\n", t("contact.label.event_date"), or(form.EventDate, t("contact.not_specified_f")))
	fmt.Fprintf(&body, "\n%s:\n%s", t("contact.label.message"), strings.TrimSpace(form.Message))

	return "mailto:" + strings.TrimSpace(recipient) + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(body.String())
}

// encodeComponent percent-encodes like a URI component: spaces become %20,
// not '+', so mail clients show them correctly.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
