package config

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/m4xw311/steward/errors"
	"gopkg.in/yaml.v3"
)

// Agent backends.
const (
	BackendGoogle = "google"
	BackendMCP    = "mcp"
	BackendStub   = "stub"
)

type Retry struct {
	MaxAttempts     uint          `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

type Google struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenDir     string `yaml:"token_dir"`
}

// AgentConfig selects and configures the backend serving one intent.
type AgentConfig struct {
	Backend string `yaml:"backend"`

	// stub
	Reply string `yaml:"reply"`

	// mcp
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Tool    string   `yaml:"tool"`

	// email
	AllowedRecipients []string `yaml:"allowed_recipients"`
}

type Config struct {
	LLMClient   string                 `yaml:"llm"`
	Model       string                 `yaml:"model"`
	IntentModel string                 `yaml:"intent_model"`
	Temperature float64                `yaml:"temperature"`
	Timeout     time.Duration          `yaml:"timeout"`
	Retry       Retry                  `yaml:"retry"`
	Google      Google                 `yaml:"google"`
	Agents      map[string]AgentConfig `yaml:"agents"`
}

// Default returns the configuration used when no file overrides it. The
// default agents apply only until a config file declares its own agents.
func Default() *Config {
	return &Config{
		LLMClient: "openai",
		Model:     "gpt-4o-mini",
		Timeout:   60 * time.Second,
		Retry: Retry{
			MaxAttempts:     3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     8 * time.Second,
		},
		Google: Google{
			TokenDir: filepath.Join(".steward", "token"),
		},
		Agents: map[string]AgentConfig{
			"email":    {Backend: BackendGoogle},
			"calendar": {Backend: BackendGoogle},
		},
	}
}

// LoadConfig loads .env, then configuration from the user's home directory,
// the current working directory and finally explicitPath (if set). Later
// files take precedence over earlier ones.
func LoadConfig(explicitPath string) (*Config, error) {
	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Fatal(err, "could not read .env")
	}

	cfg := Default()
	l := &loader{cfg: cfg}

	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".steward", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := l.load(userConfigPath); err != nil {
				return nil, errors.Fatal(err, "error loading user config")
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".steward", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := l.load(projectConfigPath); err != nil {
			return nil, errors.Fatal(err, "error loading project config")
		}
	}

	if explicitPath != "" {
		if err := l.load(explicitPath); err != nil {
			return nil, errors.Fatal(err, "error loading config %s", explicitPath)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references. A bare $ is left alone.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// loader applies config files in order on top of cfg.
type loader struct {
	cfg       *Config
	ownAgents bool
}

func (l *loader) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data = []byte(expandEnv(string(data)))

	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["agents"]; ok && !l.ownAgents {
		l.cfg.Agents = map[string]AgentConfig{}
		l.ownAgents = true
	}
	// Fields present in the file replace earlier values; agent entries are
	// replaced per intent rather than merged field by field.
	return yaml.Unmarshal(data, l.cfg)
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.LLMClient == "" {
		return errors.Fatal(nil, "config: llm must be set")
	}
	if c.Timeout < 0 {
		return errors.Fatal(nil, "config: timeout must not be negative")
	}
	for name, a := range c.Agents {
		switch a.Backend {
		case BackendGoogle, BackendStub:
		case BackendMCP:
			if a.Command == "" || a.Tool == "" {
				return errors.Fatal(nil, "config: agent %q with mcp backend needs command and tool", name)
			}
		default:
			return errors.Fatal(nil, "config: agent %q has unknown backend %q", name, a.Backend)
		}
	}
	return nil
}

// AgentNames returns the configured intents in sorted order.
func (c *Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
