package deployconfig

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidURL = errors.New("The Rancher URL doesn't look right")

type Config struct {
	Rancher Config_Rancher `yaml:"rancher"`
	Target  Config_Target  `yaml:"target"`
	Upgrade Config_Upgrade `yaml:"upgrade"`
	Debug   bool           `yaml:"debug"`
}

type Config_Rancher struct {
	URL       string `yaml:"url"`
	AccessKey string `yaml:"access-key"`
	SecretKey string `yaml:"secret-key"`
}

type Config_Target struct {
	Cluster     string `yaml:"cluster"`
	Environment string `yaml:"environment"`
	Stack       string `yaml:"stack"`
	Service     string `yaml:"service"`
}

type Config_Upgrade struct {
	NewImage string `yaml:"new-image"`

	// Timeout is in seconds.
	Timeout      int      `yaml:"timeout"`
	Wait         bool     `yaml:"wait"`
	PollInterval Duration `yaml:"poll-interval"`
}

// Duration reads YAML values such as "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return errors.Wrapf(err, "invalid duration '%s'", value.Value)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func Default() *Config {
	return &Config{
		Upgrade: Config_Upgrade{
			Timeout:      DEFAULT_UPGRADE_TIMEOUT,
			Wait:         true,
			PollInterval: Duration(DEFAULT_POLL_INTERVAL),
		},
		Debug: true,
	}
}

// LoadFile overlays the YAML file at path onto Default().
func LoadFile(path string) (*Config, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	err = yaml.Unmarshal(configBytes, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// ApplyEnv fills options from the environment. Lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	apply := func(name string, dest *string) {
		if value, ok := lookup(name); ok && value != "" {
			*dest = value
		}
	}

	apply(ENV_RANCHER_URL, &c.Rancher.URL)
	apply(ENV_RANCHER_ACCESS_KEY, &c.Rancher.AccessKey)
	apply(ENV_RANCHER_SECRET_KEY, &c.Rancher.SecretKey)
	apply(ENV_CI_PROJECT_NAMESPACE, &c.Target.Stack)
	apply(ENV_CI_PROJECT_NAME, &c.Target.Service)
}

type MissingOptionsError struct {
	Options []string
}

func (e *MissingOptionsError) Error() string {
	return "missing required options: " + strings.Join(e.Options, ", ")
}

func (c *Config) Validate() error {
	var missing []string
	check := func(option, value string) {
		if value == "" {
			missing = append(missing, option)
		}
	}

	check("--rancher-url", c.Rancher.URL)
	check("--rancher-key", c.Rancher.AccessKey)
	check("--rancher-secret", c.Rancher.SecretKey)
	check("--cluster", c.Target.Cluster)
	check("--environment", c.Target.Environment)
	check("--stack", c.Target.Stack)
	check("--service", c.Target.Service)

	if len(missing) > 0 {
		return &MissingOptionsError{Options: missing}
	}

	if c.Upgrade.Timeout < 0 {
		return errors.New("the upgrade timeout cannot be negative")
	}

	if c.Upgrade.PollInterval <= 0 {
		return errors.New("the poll interval must be positive")
	}

	_, err := c.APIEndpoint()
	return err
}

// APIEndpoint turns the server URL into the /v3 API base.
func (c *Config) APIEndpoint() (string, error) {
	proto, host, found := strings.Cut(c.Rancher.URL, "://")
	if !found || proto == "" || host == "" || strings.Contains(host, "://") {
		return "", ErrInvalidURL
	}

	return proto + "://" + strings.TrimRight(host, "/") + "/v3", nil
}

// Host is the server URL without its scheme, used in user messages.
func (c *Config) Host() string {
	_, host, found := strings.Cut(c.Rancher.URL, "://")
	if !found {
		return c.Rancher.URL
	}
	return host
}
