package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"microteca/pkg/models"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Microorganisms []models.Fields `yaml:"microorganisms"`
}

// LoadSeed reads the start-up collection from path, or from the embedded
// seed when path is empty.
func LoadSeed(path string) ([]models.Fields, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", path, err)
		}
		data = b
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]models.Fields, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return sf.Microorganisms, nil
}
