package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultContentAPIPort   = "1337"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultRequestTimeout   = 30 * time.Second
	defaultCMSBaseURL       = "http://localhost:1337/api"
	defaultMediaOrigin      = "http://localhost:1337"
	defaultPagesDir         = "pages"
	defaultPublicDir        = "public"
	defaultLocalesDir       = "locales"
	defaultLocale           = "es"
	defaultRichTextFormat   = "html"
	defaultContactVariant   = "mailto"
	defaultMailtoRecipient  = "info@banda.com"
	defaultPhoneRegion      = "AR"
	defaultContactPerMinute = 10
	defaultSeedFile         = "content/seed.yaml"
	defaultUploadsDir       = "uploads"
	defaultUploadConfigFile = "config/upload.yaml"
	defaultSMTPPort         = 587
	defaultMailSubject      = "Nueva consulta de contratación"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	CMS        CMSConfig
	Site       SiteConfig
	Contact    ContactConfig
	Session    SessionConfig
	ContentAPI ContentAPIConfig
	Mail       MailConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// CMSConfig points the web server at the content API.
type CMSConfig struct {
	BaseURL     string
	MediaOrigin string
}

// SiteConfig holds page rendering settings.
type SiteConfig struct {
	PagesDir         string
	PublicDir        string
	LocalesDir       string
	DefaultLocale    string
	DevMode          bool
	RichTextFormat   string
	SanitizeRichText bool
}

// ContactConfig controls the contact form submitter.
type ContactConfig struct {
	Variant         string
	MailtoRecipient string
	PhoneRegion     string
	PerMinute       int
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// ContentAPIConfig configures the content backend.
type ContentAPIConfig struct {
	Port             string
	SeedFile         string
	UploadsDir       string
	UploadConfigFile string
	DatabaseURL      string
	PublicOrigin     string
}

// MailConfig configures notification mail delivery. An empty Host logs instead of sending.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Subject  string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map. Values in the map take precedence
// over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, environment
// variables and explicit maps, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run style PORT is honoured when the site specific one is unset.
	port := stringWithDefault(lookup, "SITE_PORT", stringWithDefault(lookup, "PORT", defaultPort))

	cfg := Config{
		Server: ServerConfig{
			Port:           port,
			ReadTimeout:    durationWithDefault(lookup, "SITE_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:   durationWithDefault(lookup, "SITE_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:    durationWithDefault(lookup, "SITE_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout: durationWithDefault(lookup, "SITE_REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		CMS: CMSConfig{
			BaseURL:     strings.TrimRight(stringWithDefault(lookup, "SITE_CMS_BASE_URL", defaultCMSBaseURL), "/"),
			MediaOrigin: strings.TrimRight(stringWithDefault(lookup, "SITE_CMS_MEDIA_ORIGIN", defaultMediaOrigin), "/"),
		},
		Site: SiteConfig{
			PagesDir:         stringWithDefault(lookup, "SITE_PAGES_DIR", defaultPagesDir),
			PublicDir:        stringWithDefault(lookup, "SITE_PUBLIC_DIR", defaultPublicDir),
			LocalesDir:       stringWithDefault(lookup, "SITE_LOCALES_DIR", defaultLocalesDir),
			DefaultLocale:    strings.ToLower(stringWithDefault(lookup, "SITE_DEFAULT_LOCALE", defaultLocale)),
			DevMode:          boolWithDefault(lookup, "SITE_DEV", boolWithDefault(lookup, "DEV", false)),
			RichTextFormat:   strings.ToLower(stringWithDefault(lookup, "SITE_RICH_TEXT_FORMAT", defaultRichTextFormat)),
			SanitizeRichText: boolWithDefault(lookup, "SITE_RICH_TEXT_SANITIZE", false),
		},
		Contact: ContactConfig{
			Variant:         strings.ToLower(stringWithDefault(lookup, "SITE_CONTACT_VARIANT", defaultContactVariant)),
			MailtoRecipient: stringWithDefault(lookup, "SITE_CONTACT_MAILTO", defaultMailtoRecipient),
			PhoneRegion:     strings.ToUpper(stringWithDefault(lookup, "SITE_CONTACT_PHONE_REGION", defaultPhoneRegion)),
			PerMinute:       intWithDefault(lookup, "SITE_CONTACT_PER_MIN", defaultContactPerMinute),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "SITE_SESSION_SIGNING_KEY", ""),
			Secure:     strings.ToLower(stringWithDefault(lookup, "SITE_ENV", "local")) == "prod",
		},
		ContentAPI: ContentAPIConfig{
			Port:             stringWithDefault(lookup, "CONTENT_API_PORT", defaultContentAPIPort),
			SeedFile:         stringWithDefault(lookup, "CONTENT_API_SEED_FILE", defaultSeedFile),
			UploadsDir:       stringWithDefault(lookup, "CONTENT_API_UPLOADS_DIR", defaultUploadsDir),
			UploadConfigFile: stringWithDefault(lookup, "CONTENT_API_UPLOAD_CONFIG", defaultUploadConfigFile),
			DatabaseURL:      stringWithDefault(lookup, "CONTENT_API_DATABASE_URL", stringWithDefault(lookup, "DATABASE_URL", "")),
			PublicOrigin:     strings.TrimRight(stringWithDefault(lookup, "CONTENT_API_PUBLIC_ORIGIN", ""), "/"),
		},
		Mail: MailConfig{
			Host:     stringWithDefault(lookup, "MAIL_SMTP_HOST", ""),
			Port:     intWithDefault(lookup, "MAIL_SMTP_PORT", defaultSMTPPort),
			Username: stringWithDefault(lookup, "MAIL_SMTP_USERNAME", ""),
			Password: stringWithDefault(lookup, "MAIL_SMTP_PASSWORD", ""),
			From:     stringWithDefault(lookup, "MAIL_FROM", "noreply@banda.com"),
			To:       stringWithDefault(lookup, "MAIL_TO", "admin@banda.com"),
			Subject:  stringWithDefault(lookup, "MAIL_SUBJECT", defaultMailSubject),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if cfg.Server.Port == "" {
		invalid = append(invalid, "Server.Port")
	}
	if !isHTTPURL(cfg.CMS.BaseURL) {
		invalid = append(invalid, "CMS.BaseURL")
	}
	if !isHTTPURL(cfg.CMS.MediaOrigin) {
		invalid = append(invalid, "CMS.MediaOrigin")
	}
	switch cfg.Site.RichTextFormat {
	case "html", "markdown":
	default:
		invalid = append(invalid, "Site.RichTextFormat")
	}
	switch cfg.Contact.Variant {
	case "mailto", "error":
	default:
		invalid = append(invalid, "Contact.Variant")
	}
	if !strings.Contains(cfg.Contact.MailtoRecipient, "@") {
		invalid = append(invalid, "Contact.MailtoRecipient")
	}
	if cfg.Contact.PerMinute < 0 {
		invalid = append(invalid, "Contact.PerMinute")
	}
	if cfg.ContentAPI.PublicOrigin != "" && !isHTTPURL(cfg.ContentAPI.PublicOrigin) {
		invalid = append(invalid, "ContentAPI.PublicOrigin")
	}
	if cfg.Mail.Host != "" && (cfg.Mail.Port <= 0 || cfg.Mail.To == "" || cfg.Mail.From == "") {
		invalid = append(invalid, "Mail")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(parts[1]), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
