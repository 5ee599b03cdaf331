package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"
)

const submittingLabel = "ENVIANDO..."

// Form is the contact form region. It satisfies the submit control and
// notifier roles used by the contact submitter.
type Form struct {
	root     *goquery.Selection
	submit   *goquery.Selection
	label    string
	notice   *goquery.Selection
	lastKind string
}

func newForm(root *goquery.Selection) *Form {
	f := &Form{root: root}
	if !present(root) {
		return f
	}
	f.submit = root.Find("button[type='submit'], .submit-btn").First()
	f.label = strings.TrimSpace(f.submit.Text())
	return f
}

// Present reports whether the page has a contact form.
func (f *Form) Present() bool { return f != nil && present(f.root) }

// Disable marks the submit control busy.
func (f *Form) Disable() {
	if !f.Present() || !present(f.submit) {
		return
	}
	f.submit.SetAttr("disabled", "disabled")
	f.submit.SetAttr("aria-busy", "true")
	f.submit.SetText(submittingLabel)
}

// Enable restores the submit control.
func (f *Form) Enable() {
	if !f.Present() || !present(f.submit) {
		return
	}
	f.submit.RemoveAttr("disabled")
	f.submit.RemoveAttr("aria-busy")
	f.submit.SetText(f.label)
}

// Disabled reports the submit control state.
func (f *Form) Disabled() bool {
	if !f.Present() || !present(f.submit) {
		return false
	}
	_, ok := f.submit.Attr("disabled")
	return ok
}

// Success shows a success notification.
func (f *Form) Success(message string) { f.notify("success", message) }

// Error shows an error notification.
func (f *Form) Error(message string) { f.notify("error", message) }

// notify replaces any previous notification; only one is shown at a time.
func (f *Form) notify(kind, message string) {
	if !f.Present() {
		return
	}
	if present(f.notice) {
		f.notice.Remove()
	}
	node := with(el(atom.Div, "class", "notification notification-"+kind, "role", "status", "aria-live", "polite"),
		with(el(atom.Span), text(message)),
	)
	f.root.PrependNodes(node)
	f.notice = f.root.FindNodes(node)
	f.lastKind = kind
}

// Notification returns the kind and text of the visible notification.
func (f *Form) Notification() (kind, message string) {
	if !f.Present() || !present(f.notice) {
		return "", ""
	}
	return f.lastKind, strings.TrimSpace(f.notice.Text())
}

// Fill writes submitted values back into the matching fields.
func (f *Form) Fill(values map[string]string) {
	if !f.Present() {
		return
	}
	for name, value := range values {
		field := f.root.Find(`[name="` + name + `"]`).First()
		if !present(field) {
			continue
		}
		switch goquery.NodeName(field) {
		case "textarea":
			field.SetText(value)
		case "select":
			field.Find("option").Each(func(_ int, opt *goquery.Selection) {
				optValue, ok := opt.Attr("value")
				if !ok {
					optValue = strings.TrimSpace(opt.Text())
				}
				if optValue == value {
					opt.SetAttr("selected", "selected")
				} else {
					opt.RemoveAttr("selected")
				}
			})
		default:
			field.SetAttr("value", value)
		}
	}
}

// Reset clears every field back to its blank state.
func (f *Form) Reset() {
	if !f.Present() {
		return
	}
	f.root.Find("input").Each(func(_ int, in *goquery.Selection) {
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "hidden", "submit", "button", "checkbox", "radio":
			return
		}
		in.RemoveAttr("value")
	})
	f.root.Find("textarea").Empty()
	f.root.Find("select option").RemoveAttr("selected")
}

// SetHidden sets (or adds) a hidden input such as the CSRF token.
func (f *Form) SetHidden(name, value string) {
	if !f.Present() {
		return
	}
	field := f.root.Find(`input[type="hidden"][name="` + name + `"]`).First()
	if present(field) {
		field.SetAttr("value", value)
		return
	}
	f.root.PrependNodes(el(atom.Input, "type", "hidden", "name", name, "value", value))
}

// SetAction points the form at action and enables the HTMX swap of the
// form fragment.
func (f *Form) SetAction(action, target string) {
	if !f.Present() {
		return
	}
	f.root.SetAttr("action", action)
	f.root.SetAttr("method", "post")
	if target != "" {
		f.root.SetAttr("hx-post", action)
		f.root.SetAttr("hx-target", target)
		f.root.SetAttr("hx-swap", "outerHTML")
	}
}

// OuterHTML serialises the form element alone, for fragment responses.
func (f *Form) OuterHTML() (string, error) {
	if !f.Present() {
		return "", nil
	}
	return goquery.OuterHtml(f.root)
}
