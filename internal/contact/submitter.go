package contact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"tributo.band/site/internal/cms"
)

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("contact: submission already in progress")

// State is a step of the submission state machine.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateDegraded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Variant selects the behaviour when the POST fails.
type Variant string

const (
	// VariantMailtoFallback opens a prefilled mailto link and reports the error.
	VariantMailtoFallback Variant = "mailto"
	// VariantErrorOnly reports the error without any fallback.
	VariantErrorOnly Variant = "error"
)

// ParseVariant maps a config value to a Variant, defaulting to the mailto fallback.
func ParseVariant(raw string) Variant {
	if Variant(strings.ToLower(strings.TrimSpace(raw))) == VariantErrorOnly {
		return VariantErrorOnly
	}
	return VariantMailtoFallback
}

// Message keys looked up in the translation bundle.
const (
	msgRequired     = "contact.required"
	msgInvalidEmail = "contact.invalid_email"
	msgSuccess      = "contact.success"
	msgError        = "contact.error"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidationError blocks a submission before any request is made.
type ValidationError struct {
	Field      string
	MessageKey string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("contact: invalid %s: %s", e.Field, e.Message)
}

// Form is the submitted contact form.
type Form struct {
	Name      string
	Email     string
	Phone     string
	EventType string
	EventDate string
	Message   string
}

// FormFromValues reads a form post. Both the hyphenated and camelCase field
// names are accepted for event type and date.
func FormFromValues(values url.Values) Form {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(values.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}
	return Form{
		Name:      pick("name"),
		Email:     pick("email"),
		Phone:     pick("phone"),
		EventType: pick("event-type", "eventType"),
		EventDate: pick("event-date", "eventDate"),
		Message:   pick("message"),
	}
}

// Values returns the form keyed by input name, for refilling the page form.
func (f Form) Values() map[string]string {
	return map[string]string{
		"name":       f.Name,
		"email":      f.Email,
		"phone":      f.Phone,
		"event-type": f.EventType,
		"event-date": f.EventDate,
		"message":    f.Message,
	}
}

// Poster sends the submission to the content API.
type Poster interface {
	SubmitContact(ctx context.Context, sub cms.ContactSubmission) (cms.Record, error)
}

// Control is the submit button.
type Control interface {
	Disable()
	Enable()
}

// Notifier shows user-facing notifications.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator follows a URL on behalf of the user (the mailto fallback).
type Navigator interface {
	Navigate(url string)
}

// Resetter clears the form after a successful submission.
type Resetter interface {
	Reset()
}

// Translator resolves message keys.
type Translator interface {
	T(lang, key string) string
}

// Config holds per-site settings of the submitter.
type Config struct {
	Variant         Variant
	MailtoRecipient string
	PhoneRegion     string
	Lang            string
}

// Deps are the collaborators of one submitter. Nil collaborators are no-ops.
type Deps struct {
	Poster    Poster
	Control   Control
	Notifier  Notifier
	Navigator Navigator
	Form      Resetter
	Messages  Translator
	Logger    *zap.Logger
}

// Outcome describes how a submission ended.
type Outcome struct {
	State     State
	Record    cms.Record
	MailtoURL string
}

// Submitter drives one contact form through validation and submission.
type Submitter struct {
	cfg     Config
	deps    Deps
	state   State
	history []State
}

// New builds a submitter in the Idle state.
func New(cfg Config, deps Deps) *Submitter {
	if cfg.Variant == "" {
		cfg.Variant = VariantMailtoFallback
	}
	if deps.Control == nil {
		deps.Control = nopControl{}
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Navigator == nil {
		deps.Navigator = nopNavigator{}
	}
	if deps.Form == nil {
		deps.Form = nopResetter{}
	}
	if deps.Messages == nil {
		deps.Messages = defaultMessages{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Submitter{cfg: cfg, deps: deps, state: StateIdle, history: []State{StateIdle}}
}

// State returns the current state.
func (s *Submitter) State() State { return s.state }

// History returns every state visited, starting with Idle.
func (s *Submitter) History() []State {
	out := make([]State, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Submitter) transition(to State) {
	s.deps.Logger.Debug("contact form transition",
		zap.Stringer("from", s.state),
		zap.Stringer("to", to),
	)
	s.state = to
	s.history = append(s.history, to)
}

func (s *Submitter) t(key string) string {
	return s.deps.Messages.T(s.cfg.Lang, key)
}

// Submit validates form and posts it. The error is non-nil whenever the
// submission was not accepted: a *ValidationError before any request, or
// the POST error in the Degraded and Failed states. The submit control is
// re-enabled on every path that disabled it.
func (s *Submitter) Submit(ctx context.Context, form Form) (Outcome, error) {
	if s.state == StateSubmitting {
		return Outcome{State: s.state}, ErrBusy
	}

	s.transition(StateValidating)
	if verr := s.validate(form); verr != nil {
		s.deps.Notifier.Error(verr.Message)
		s.transition(StateIdle)
		return Outcome{State: StateIdle}, verr
	}

	s.deps.Control.Disable()
	defer s.deps.Control.Enable()
	s.transition(StateSubmitting)

	if s.deps.Poster == nil {
		return s.fail(form, errors.New("contact: no poster configured"))
	}
	rec, err := s.deps.Poster.SubmitContact(ctx, s.submission(form))
	if err != nil {
		return s.fail(form, err)
	}

	s.transition(StateSucceeded)
	s.deps.Notifier.Success(s.t(msgSuccess))
	s.deps.Form.Reset()
	s.deps.Logger.Info("contact submission accepted", zap.Int64("record_id", rec.ID))
	return Outcome{State: StateSucceeded, Record: rec}, nil
}

func (s *Submitter) fail(form Form, err error) (Outcome, error) {
	s.deps.Logger.Warn("contact submission failed",
		zap.Error(err),
		zap.String("variant", string(s.cfg.Variant)),
	)
	if s.cfg.Variant == VariantMailtoFallback {
		link := MailtoURL(s.cfg.MailtoRecipient, form, s.deps.Messages, s.cfg.Lang)
		s.deps.Navigator.Navigate(link)
		s.deps.Notifier.Error(s.t(msgError))
		s.transition(StateDegraded)
		return Outcome{State: StateDegraded, MailtoURL: link}, err
	}
	s.deps.Notifier.Error(s.t(msgError))
	s.transition(StateFailed)
	return Outcome{State: StateFailed}, err
}

func (s *Submitter) validate(form Form) *ValidationError {
	switch {
	case strings.TrimSpace(form.Name) == "":
		return &ValidationError{Field: "name", MessageKey: msgRequired, Message: s.t(msgRequired)}
	case strings.TrimSpace(form.Email) == "":
		return &ValidationError{Field: "email", MessageKey: msgRequired, Message: s.t(msgRequired)}
	case strings.TrimSpace(form.Message) == "":
		return &ValidationError{Field: "message", MessageKey: msgRequired, Message: s.t(msgRequired)}
	case !ValidEmail(strings.TrimSpace(form.Email)):
		return &ValidationError{Field: "email", MessageKey: msgInvalidEmail, Message: s.t(msgInvalidEmail)}
	}
	return nil
}

func (s *Submitter) submission(form Form) cms.ContactSubmission {
	return cms.ContactSubmission{
		Name:      strings.TrimSpace(form.Name),
		Email:     strings.TrimSpace(form.Email),
		Phone:     NormalizePhone(form.Phone, s.cfg.PhoneRegion),
		EventType: strings.TrimSpace(form.EventType),
		EventDate: strings.TrimSpace(form.EventDate),
		Message:   strings.TrimSpace(form.Message),
	}
}

// NormalizePhone formats a valid number as E.164. Anything unparseable is
// returned trimmed but otherwise untouched.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = "AR"
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

type nopControl struct{}

func (nopControl) Disable() {}
func (nopControl) Enable()  {}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

type nopResetter struct{}

func (nopResetter) Reset() {}
