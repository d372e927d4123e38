package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Secrets is the credentials file. Dataset ids are keyed by platform name.
type Secrets struct {
	BrightData struct {
		APIKey   string            `yaml:"api_key"`
		Datasets map[string]string `yaml:"datasets"`
	} `yaml:"brightdata"`
}

func LoadSecrets(path string) (*Secrets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}
	var s Secrets
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse secrets %s: %w", path, err)
	}
	if s.BrightData.APIKey == "" {
		return nil, fmt.Errorf("secrets %s: brightdata.api_key is empty", path)
	}
	return &s, nil
}

func (s *Secrets) DatasetID(site Site) (string, error) {
	id := s.BrightData.Datasets[site.Platform()]
	if id == "" {
		return "", fmt.Errorf("no brightdata dataset configured for %s", site)
	}
	return id, nil
}
