// Package config builds the immutable run configuration from an optional YAML
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hazz-dev/fleetprobe/internal/event"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultSinkTimeout       = 3 * time.Second
	DefaultZooPort           = 2181
	DefaultZooConnectTimeout = 2000 * time.Millisecond
	DefaultZooReadTimeout    = 100 * time.Millisecond
	DefaultFederationPort    = 15672
	DefaultFederationTimeout = 3 * time.Second
	DefaultMetricsJob        = "fleetprobe"
)

var (
	// ErrNoHosts is returned when a monitor has an empty host list.
	ErrNoHosts = errors.New("no hosts configured")
	// ErrNoSink is returned when the sink URL is unset. Validation checks it
	// last, so every other requirement holds when it is returned.
	ErrNoSink = errors.New("sink url is required (set JUGGLER_URL)")
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// SinkConfig holds the alert sink settings.
type SinkConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// EventConfig holds the fields stamped on every emitted event.
type EventConfig struct {
	Service    string   `yaml:"service"`
	Instance   string   `yaml:"instance"`
	Host       string   `yaml:"host"`
	HostSuffix string   `yaml:"host_suffix"`
	Tags       []string `yaml:"tags"`
}

// Template converts the event settings into an event.Template.
func (e EventConfig) Template() event.Template {
	return event.Template{
		Service:    e.Service,
		Instance:   e.Instance,
		HostSuffix: e.HostSuffix,
		Tags:       e.Tags,
	}
}

// ZooConfig holds the coordination-ensemble monitor settings.
type ZooConfig struct {
	Hosts          []string
	Port           int
	ConnectTimeout Duration
	ReadTimeout    Duration
	// ExpectedFollowers overrides the len(Hosts)-1 default when set.
	ExpectedFollowers *int
	Source            string
	Event             EventConfig
}

// Expected returns the number of synced followers a healthy leader reports.
func (z ZooConfig) Expected() int {
	if z.ExpectedFollowers != nil {
		return *z.ExpectedFollowers
	}
	if len(z.Hosts) == 0 {
		return 0
	}
	return len(z.Hosts) - 1
}

// FederationConfig holds the broker federation monitor settings.
type FederationConfig struct {
	Hosts    []string
	Port     int
	Login    string
	Password string
	Timeout  Duration
	Source   string
	Event    EventConfig
}

// MetricsConfig holds the Pushgateway settings. An empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Config is the root application configuration.
type Config struct {
	Sink       SinkConfig
	Zoo        ZooConfig
	Federation FederationConfig
	Metrics    MetricsConfig
}

// environment lists the variables that override the file.
type environment struct {
	ZooHosts             string `env:"ZOO_HOSTS"`
	ZooExpectedFollowers string `env:"ZOO_EXPECTED_FOLLOWERS"`
	RMQHosts             string `env:"RMQ_HOSTS"`
	RMQLogin             string `env:"RMQ_LOGIN"`
	RMQPassword          string `env:"RMQ_PASSWORD"`
	SinkURL              string `env:"JUGGLER_URL"`
	PushgatewayURL       string `env:"PUSHGATEWAY_URL"`
}

// Load reads the optional config file at path and overlays the process
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	return LoadEnv(path, nil)
}

// LoadEnv is Load with an explicit environment. A nil map reads the process
// environment.
func LoadEnv(path string, environ map[string]string) (*Config, error) {
	type rawSink struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	}
	type rawZoo struct {
		Hosts             []string    `yaml:"hosts"`
		Port              int         `yaml:"port"`
		ConnectTimeout    string      `yaml:"connect_timeout"`
		ReadTimeout       string      `yaml:"read_timeout"`
		ExpectedFollowers *int        `yaml:"expected_followers"`
		Source            string      `yaml:"source"`
		Event             EventConfig `yaml:"event"`
	}
	type rawFederation struct {
		Hosts    []string    `yaml:"hosts"`
		Port     int         `yaml:"port"`
		Login    string      `yaml:"login"`
		Password string      `yaml:"password"`
		Timeout  string      `yaml:"timeout"`
		Source   string      `yaml:"source"`
		Event    EventConfig `yaml:"event"`
	}
	type rawConfig struct {
		Sink       rawSink       `yaml:"sink"`
		Zoo        rawZoo        `yaml:"zoo"`
		Federation rawFederation `yaml:"federation"`
		Metrics    MetricsConfig `yaml:"metrics"`
	}

	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	var e environment
	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg := &Config{
		Sink:    SinkConfig{URL: raw.Sink.URL},
		Metrics: raw.Metrics,
	}
	var err error

	// Sink.
	if e.SinkURL != "" {
		cfg.Sink.URL = e.SinkURL
	}
	if cfg.Sink.Timeout, err = parseDuration("sink.timeout", raw.Sink.Timeout, DefaultSinkTimeout); err != nil {
		return nil, err
	}

	// Coordination ensemble.
	z := &cfg.Zoo
	if z.Hosts, err = hostList("zoo.hosts", raw.Zoo.Hosts, e.ZooHosts); err != nil {
		return nil, err
	}
	z.Port = orDefault(raw.Zoo.Port, DefaultZooPort)
	if z.ConnectTimeout, err = parseDuration("zoo.connect_timeout", raw.Zoo.ConnectTimeout, DefaultZooConnectTimeout); err != nil {
		return nil, err
	}
	if z.ReadTimeout, err = parseDuration("zoo.read_timeout", raw.Zoo.ReadTimeout, DefaultZooReadTimeout); err != nil {
		return nil, err
	}
	z.ExpectedFollowers = raw.Zoo.ExpectedFollowers
	if e.ZooExpectedFollowers != "" {
		n, err := strconv.Atoi(strings.TrimSpace(e.ZooExpectedFollowers))
		if err != nil {
			return nil, fmt.Errorf("invalid ZOO_EXPECTED_FOLLOWERS %q: %w", e.ZooExpectedFollowers, err)
		}
		z.ExpectedFollowers = &n
	}
	if z.ExpectedFollowers != nil && *z.ExpectedFollowers < 0 {
		return nil, fmt.Errorf("zoo.expected_followers must not be negative, got %d", *z.ExpectedFollowers)
	}
	z.Source = orDefault(raw.Zoo.Source, "zoo")
	z.Event = raw.Zoo.Event
	z.Event.Service = orDefault(z.Event.Service, "state")
	if z.Event.Tags == nil {
		z.Event.Tags = []string{"zoo", "monitoring"}
	}

	// Broker federation.
	f := &cfg.Federation
	if f.Hosts, err = hostList("federation.hosts", raw.Federation.Hosts, e.RMQHosts); err != nil {
		return nil, err
	}
	f.Port = orDefault(raw.Federation.Port, DefaultFederationPort)
	f.Login = orDefault(e.RMQLogin, raw.Federation.Login)
	f.Password = orDefault(e.RMQPassword, raw.Federation.Password)
	if f.Timeout, err = parseDuration("federation.timeout", raw.Federation.Timeout, DefaultFederationTimeout); err != nil {
		return nil, err
	}
	f.Source = orDefault(raw.Federation.Source, "rmq")
	f.Event = raw.Federation.Event
	f.Event.Service = orDefault(f.Event.Service, "federation")
	if f.Event.Tags == nil {
		f.Event.Tags = []string{}
	}

	// Metrics.
	if e.PushgatewayURL != "" {
		cfg.Metrics.PushgatewayURL = e.PushgatewayURL
	}
	cfg.Metrics.Job = orDefault(cfg.Metrics.Job, DefaultMetricsJob)

	return cfg, nil
}

// ValidateZoo checks the settings the ensemble monitor cannot run without.
func (c *Config) ValidateZoo() error {
	if len(c.Zoo.Hosts) == 0 {
		return fmt.Errorf("zoo: %w (set ZOO_HOSTS)", ErrNoHosts)
	}
	if c.Sink.URL == "" {
		return ErrNoSink
	}
	return nil
}

// ValidateFederation checks the settings the federation monitor cannot run
// without.
func (c *Config) ValidateFederation() error {
	if len(c.Federation.Hosts) == 0 {
		return fmt.Errorf("federation: %w (set RMQ_HOSTS)", ErrNoHosts)
	}
	if c.Federation.Login == "" {
		return fmt.Errorf("federation login is required (set RMQ_LOGIN)")
	}
	if c.Federation.Password == "" {
		return fmt.Errorf("federation password is required (set RMQ_PASSWORD)")
	}
	if c.Sink.URL == "" {
		return ErrNoSink
	}
	return nil
}

// ParseHosts splits a comma-separated host list. Entries are trimmed, blanks
// are skipped and order is preserved. A repeated host is an error.
func ParseHosts(s string) ([]string, error) {
	return normalizeHosts(strings.Split(s, ","))
}

func normalizeHosts(in []string) ([]string, error) {
	hosts := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, h := range in {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if seen[h] {
			return nil, fmt.Errorf("duplicate host %q", h)
		}
		seen[h] = true
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// hostList prefers the environment value over the file list.
func hostList(field string, fromFile []string, fromEnv string) ([]string, error) {
	var (
		hosts []string
		err   error
	)
	if fromEnv != "" {
		hosts, err = ParseHosts(fromEnv)
	} else {
		hosts, err = normalizeHosts(fromFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return hosts, nil
}

func parseDuration(field, s string, def time.Duration) (Duration, error) {
	if s == "" {
		return Duration{def}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return Duration{}, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return Duration{}, fmt.Errorf("invalid %s %q: must be positive", field, s)
	}
	return Duration{d}, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
