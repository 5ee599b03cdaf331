package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSizeLimit is the upload ceiling in bytes (100MB).
const DefaultSizeLimit int64 = 100000000

// Config mirrors the media library settings of the content API.
type Config struct {
	Provider    string         `yaml:"provider"`
	SizeLimit   int64          `yaml:"sizeLimit"`
	Breakpoints map[string]int `yaml:"breakpoints"`
	Formats     []string       `yaml:"formats"`
}

// Default returns the stock media configuration.
func Default() Config {
	return Config{
		Provider:  "local",
		SizeLimit: DefaultSizeLimit,
		Breakpoints: map[string]int{
			"xlarge": 1920,
			"large":  1000,
			"medium": 750,
			"small":  500,
			"xsmall": 64,
		},
		Formats: []string{"thumbnail", "small", "medium", "large"},
	}
}

// Load reads a YAML config file. A missing file yields Default; fields absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("upload: read config %s: %w", path, err)
	}
	var fromFile Config
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return Config{}, fmt.Errorf("upload: parse config %s: %w", path, err)
	}
	if fromFile.Provider != "" {
		cfg.Provider = fromFile.Provider
	}
	if fromFile.SizeLimit != 0 {
		cfg.SizeLimit = fromFile.SizeLimit
	}
	if fromFile.Breakpoints != nil {
		cfg.Breakpoints = fromFile.Breakpoints
	}
	if fromFile.Formats != nil {
		cfg.Formats = fromFile.Formats
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the limit and breakpoint widths.
func (c Config) Validate() error {
	var problems []string
	if c.Provider != "local" {
		problems = append(problems, fmt.Sprintf("provider %q is not supported", c.Provider))
	}
	if c.SizeLimit <= 0 {
		problems = append(problems, "sizeLimit must be positive")
	}
	for name, width := range c.Breakpoints {
		if width <= 0 {
			problems = append(problems, fmt.Sprintf("breakpoint %s must be positive", name))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("upload: invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// VariantsFor lists the breakpoint names narrower than width, widest first.
// When Formats is set only the listed names are returned.
func (c Config) VariantsFor(width int) []string {
	type bp struct {
		name  string
		width int
	}
	var allowed map[string]bool
	if len(c.Formats) > 0 {
		allowed = make(map[string]bool, len(c.Formats))
		for _, f := range c.Formats {
			allowed[f] = true
		}
	}
	var candidates []bp
	for name, w := range c.Breakpoints {
		if w >= width {
			continue
		}
		if allowed != nil && !allowed[name] {
			continue
		}
		candidates = append(candidates, bp{name: name, width: w})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].width == candidates[j].width {
			return candidates[i].name < candidates[j].name
		}
		return candidates[i].width > candidates[j].width
	})
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}
