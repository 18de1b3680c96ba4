// internal/config/topics.go
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultStarThreshold = 1000
	defaultNewLimit      = 50
)

// Topics describes what the catalog discovery job should look for: a list of
// topic keywords plus bounds on how many new repositories to adopt per topic.
type Topics struct {
	Topics           []string `yaml:"topics"`
	StarThreshold    int      `yaml:"star_threshold"`
	NewLimitPerTopic int      `yaml:"new_limit_per_topic"`
}

// LoadTopics reads and validates a topics YAML file.
func LoadTopics(path string) (*Topics, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var t Topics
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse topics file: %w", err)
	}

	var topics []string
	for _, raw := range t.Topics {
		if s := strings.TrimSpace(raw); s != "" {
			topics = append(topics, s)
		}
	}
	t.Topics = topics

	if t.StarThreshold <= 0 {
		t.StarThreshold = defaultStarThreshold
	}
	if t.NewLimitPerTopic <= 0 {
		t.NewLimitPerTopic = defaultNewLimit
	}
	return &t, nil
}
