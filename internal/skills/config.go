package skills

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultConfig []byte

var ErrInvalidConfig = errors.New("invalid skills config")

type Config struct {
	Rules     []Rule          `yaml:"rules"`
	Fallback  []string        `yaml:"fallback,omitempty"`
	Meeting   MeetingConfig   `yaml:"meeting"`
	Guess     GuessConfig     `yaml:"guess"`
	WordChain WordChainConfig `yaml:"wordchain"`
	Quizzes   []Quiz          `yaml:"quizzes"`
}

type MeetingConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type GuessConfig struct {
	Max int `yaml:"max"`
}

type WordChainConfig struct {
	Vocabulary []string `yaml:"vocabulary"`
}

// Default returns the embedded demo configuration.
func Default() (*Config, error) {
	return Parse(defaultConfig)
}

// Load reads a config file. An empty path loads the embedded default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills config: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.Guess.Max <= 0 {
		cfg.Guess.Max = 100
	}

	for i, q := range cfg.Quizzes {
		if err := q.validate(); err != nil {
			return nil, fmt.Errorf("%w: quiz %d: %v", ErrInvalidConfig, i, err)
		}
	}

	return &cfg, nil
}
