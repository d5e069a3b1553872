package glimpse

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minInterval is the floor for per-widget refresh intervals. Anything below is
// a configuration error, not a silent clamp.
const minInterval = 5 * time.Second

const (
	defaultStaleMultiplier = 3
	defaultBackoffCap      = 8
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Storage struct {
		// Path of the warm-start payload store. Empty disables persistence.
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Defaults struct {
		Interval        string `yaml:"interval"`
		Timeout         string `yaml:"timeout"`
		StaleMultiplier int    `yaml:"stale-multiplier"`
		BackoffCap      int    `yaml:"backoff-cap"`

		// compiled
		intervalDur time.Duration
		timeoutDur  time.Duration
	} `yaml:"defaults"`

	Logging struct {
		LogStatsEvery string `yaml:"logStatsEvery"`

		// compiled
		logStatsEveryDur time.Duration
	} `yaml:"logging"`

	Widgets []WidgetConfig `yaml:"widgets"`
	Pages   []PageConfig   `yaml:"pages"`

	// compiled
	widgets map[string]WidgetSpec
	pages   []PageSpec
}

type WidgetConfig struct {
	ID       string            `yaml:"id"`
	Type     string            `yaml:"type"`
	File     string            `yaml:"file"`
	URL      string            `yaml:"url"`
	Query    map[string]string `yaml:"query"`
	Interval string            `yaml:"interval"`
	Timeout  string            `yaml:"timeout"`
}

type PageConfig struct {
	Name    string `yaml:"name"`
	Slug    string `yaml:"slug"`
	Columns []struct {
		Widgets []string `yaml:"widgets"`
	} `yaml:"columns"`
}

// WidgetSpecs returns the compiled widget table keyed by id.
func (c *Config) WidgetSpecs() map[string]WidgetSpec { return c.widgets }

// PageSpecs returns the compiled pages in configuration order.
func (c *Config) PageSpecs() []PageSpec { return c.pages }

func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Defaults.StaleMultiplier == 0 {
		cfg.Defaults.StaleMultiplier = defaultStaleMultiplier
	}
	if cfg.Defaults.StaleMultiplier < 1 {
		return Config{}, fmt.Errorf("defaults.stale-multiplier must be >= 1")
	}
	if cfg.Defaults.BackoffCap == 0 {
		cfg.Defaults.BackoffCap = defaultBackoffCap
	}
	if cfg.Defaults.BackoffCap < 1 {
		return Config{}, fmt.Errorf("defaults.backoff-cap must be >= 1")
	}

	cfg.Defaults.intervalDur = time.Minute
	if cfg.Defaults.Interval != "" {
		d, err := time.ParseDuration(cfg.Defaults.Interval)
		if err != nil {
			return Config{}, fmt.Errorf("defaults.interval: %w", err)
		}
		cfg.Defaults.intervalDur = d
	}
	cfg.Defaults.timeoutDur = 10 * time.Second
	if cfg.Defaults.Timeout != "" {
		d, err := time.ParseDuration(cfg.Defaults.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("defaults.timeout: %w", err)
		}
		cfg.Defaults.timeoutDur = d
	}

	if cfg.Logging.LogStatsEvery != "" {
		d, err := time.ParseDuration(cfg.Logging.LogStatsEvery)
		if err != nil {
			return Config{}, fmt.Errorf("logging.logStatsEvery: %w", err)
		}
		cfg.Logging.logStatsEveryDur = d
	}

	if len(cfg.Widgets) == 0 {
		return Config{}, fmt.Errorf("at least one widget is required")
	}
	cfg.widgets = make(map[string]WidgetSpec, len(cfg.Widgets))
	for i := range cfg.Widgets {
		w := &cfg.Widgets[i]
		spec, err := compileWidget(w, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("widgets[%d]: %w", i, err)
		}
		if _, dup := cfg.widgets[spec.ID]; dup {
			return Config{}, fmt.Errorf("widgets[%d]: duplicate id %q", i, spec.ID)
		}
		cfg.widgets[spec.ID] = spec
	}

	if len(cfg.Pages) == 0 {
		return Config{}, fmt.Errorf("at least one page is required")
	}
	seenSlugs := map[string]struct{}{}
	cfg.pages = make([]PageSpec, 0, len(cfg.Pages))
	for i := range cfg.Pages {
		p := &cfg.Pages[i]
		spec, err := compilePage(p, cfg.widgets)
		if err != nil {
			return Config{}, fmt.Errorf("pages[%d]: %w", i, err)
		}
		if _, dup := seenSlugs[spec.Slug]; dup {
			return Config{}, fmt.Errorf("pages[%d]: duplicate slug %q", i, spec.Slug)
		}
		seenSlugs[spec.Slug] = struct{}{}
		cfg.pages = append(cfg.pages, spec)
	}

	return cfg, nil
}

func compileWidget(w *WidgetConfig, cfg *Config) (WidgetSpec, error) {
	if strings.TrimSpace(w.ID) == "" {
		return WidgetSpec{}, fmt.Errorf("id is required")
	}
	shape := Shape(w.Type)
	if !shape.valid() {
		return WidgetSpec{}, fmt.Errorf("unknown type %q", w.Type)
	}
	if (w.File == "") == (w.URL == "") {
		return WidgetSpec{}, fmt.Errorf("exactly one of file or url is required")
	}
	if len(w.Query) > 0 && w.URL == "" {
		return WidgetSpec{}, fmt.Errorf("query is only valid with a url origin")
	}

	interval := cfg.Defaults.intervalDur
	if w.Interval != "" {
		d, err := time.ParseDuration(w.Interval)
		if err != nil {
			return WidgetSpec{}, fmt.Errorf("interval: %w", err)
		}
		interval = d
	}
	if interval < minInterval {
		return WidgetSpec{}, fmt.Errorf("interval %s is below the %s floor", interval, minInterval)
	}

	timeout := cfg.Defaults.timeoutDur
	if w.Timeout != "" {
		d, err := time.ParseDuration(w.Timeout)
		if err != nil {
			return WidgetSpec{}, fmt.Errorf("timeout: %w", err)
		}
		timeout = d
	}
	if timeout <= 0 {
		return WidgetSpec{}, fmt.Errorf("timeout must be positive")
	}
	if timeout >= interval {
		return WidgetSpec{}, fmt.Errorf("timeout %s must be below interval %s", timeout, interval)
	}

	return WidgetSpec{
		ID:       w.ID,
		Shape:    shape,
		File:     w.File,
		URL:      w.URL,
		Query:    w.Query,
		Interval: interval,
		Timeout:  timeout,
	}, nil
}

func compilePage(p *PageConfig, widgets map[string]WidgetSpec) (PageSpec, error) {
	if strings.TrimSpace(p.Name) == "" {
		return PageSpec{}, fmt.Errorf("name is required")
	}
	slug := p.Slug
	if slug == "" {
		slug = slugify(p.Name)
	}
	if len(p.Columns) == 0 {
		return PageSpec{}, fmt.Errorf("at least one column is required")
	}

	spec := PageSpec{Name: p.Name, Slug: slug}
	for ci, col := range p.Columns {
		if len(col.Widgets) == 0 {
			return PageSpec{}, fmt.Errorf("columns[%d]: no widgets", ci)
		}
		for _, id := range col.Widgets {
			if _, ok := widgets[id]; !ok {
				return PageSpec{}, fmt.Errorf("columns[%d]: unknown widget %q", ci, id)
			}
		}
		spec.Columns = append(spec.Columns, ColumnSpec{WidgetIDs: col.Widgets})
	}
	return spec, nil
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
