package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.CMS.BaseURL != defaultCMSBaseURL {
		t.Errorf("expected default cms base url, got %s", cfg.CMS.BaseURL)
	}
	if cfg.CMS.MediaOrigin != defaultMediaOrigin {
		t.Errorf("expected default media origin, got %s", cfg.CMS.MediaOrigin)
	}
	if cfg.Site.DefaultLocale != "es" {
		t.Errorf("expected default locale es, got %s", cfg.Site.DefaultLocale)
	}
	if cfg.Site.RichTextFormat != "html" || cfg.Site.SanitizeRichText {
		t.Errorf("rich text must default to verbatim html, got %s sanitize=%v", cfg.Site.RichTextFormat, cfg.Site.SanitizeRichText)
	}
	if cfg.Contact.Variant != "mailto" {
		t.Errorf("expected mailto variant, got %s", cfg.Contact.Variant)
	}
	if cfg.ContentAPI.Port != "1337" {
		t.Errorf("expected content api port 1337, got %s", cfg.ContentAPI.Port)
	}
	if cfg.Mail.Host != "" {
		t.Errorf("expected mail delivery disabled by default, got host %q", cfg.Mail.Host)
	}
	if cfg.Session.Secure {
		t.Errorf("expected insecure cookies outside prod")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":                    "7070",
		"SITE_CMS_BASE_URL":       "https://cms.example.com/api/",
		"SITE_CMS_MEDIA_ORIGIN":   "https://cms.example.com",
		"SITE_RICH_TEXT_FORMAT":   "Markdown",
		"SITE_RICH_TEXT_SANITIZE": "yes",
		"SITE_CONTACT_VARIANT":    "error",
		"SITE_ENV":                "prod",
		"SITE_REQUEST_TIMEOUT":    "5s",
		"MAIL_SMTP_HOST":          "smtp.example.com",
		"MAIL_SMTP_PORT":          "2525",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}
	if cfg.CMS.BaseURL != "https://cms.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.CMS.BaseURL)
	}
	if cfg.Site.RichTextFormat != "markdown" || !cfg.Site.SanitizeRichText {
		t.Errorf("unexpected rich text settings: %+v", cfg.Site)
	}
	if cfg.Contact.Variant != "error" {
		t.Errorf("expected error variant, got %s", cfg.Contact.Variant)
	}
	if !cfg.Session.Secure {
		t.Errorf("expected secure cookies in prod")
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("unexpected request timeout %s", cfg.Server.RequestTimeout)
	}
	if cfg.Mail.Port != 2525 {
		t.Errorf("unexpected smtp port %d", cfg.Mail.Port)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	env := map[string]string{
		"SITE_CMS_BASE_URL":     "not a url",
		"SITE_RICH_TEXT_FORMAT": "rtf",
		"SITE_CONTACT_VARIANT":  "carrier-pigeon",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]bool{"CMS.BaseURL": true, "Site.RichTextFormat": true, "Contact.Variant": true}
	for _, field := range verr.Fields() {
		delete(want, field)
	}
	if len(want) != 0 {
		t.Fatalf("missing fields in validation error: %v (got %v)", want, verr.Fields())
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport SITE_PORT=\"9999\"\nSITE_CONTACT_MAILTO='booking@banda.com'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("expected port from .env, got %s", cfg.Server.Port)
	}
	if cfg.Contact.MailtoRecipient != "booking@banda.com" {
		t.Errorf("expected quoted value to be unwrapped, got %s", cfg.Contact.MailtoRecipient)
	}

	cfg, err = Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"SITE_PORT": "1234"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "1234" {
		t.Errorf("explicit map must win over .env, got %s", cfg.Server.Port)
	}
}
