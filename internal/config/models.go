package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
)

type modelsFile struct {
	Models []mranked.Model `yaml:"models"`
}

// DefaultModels are the demo tables created by the built-in migrations: a
// global item list, answers ranked per question and toppings ranked per
// pizza.
func DefaultModels() []mranked.Model {
	return []mranked.Model{
		{Name: "items", Table: "items", LabelColumn: "name", ListPerPage: 50},
		{Name: "answers", Table: "answers", PartitionColumn: "question_id", LabelColumn: "answer", ListPerPage: 50},
		{Name: "pizza-toppings", Table: "pizza_toppings", PartitionColumn: "pizza_id", LabelColumn: "name", ListPerPage: 50},
	}
}

// LoadModels reads model definitions from path. An empty path yields the
// default models.
func LoadModels(path string) ([]mranked.Model, error) {
	if path == "" {
		return DefaultModels(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}
	return ParseModels(data)
}

func ParseModels(data []byte) ([]mranked.Model, error) {
	var f modelsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse models file: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, errors.New("models file defines no models")
	}
	seen := make(map[string]bool, len(f.Models))
	out := make([]mranked.Model, 0, len(f.Models))
	for _, m := range f.Models {
		m = m.WithDefaults()
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("%w: model %q defined twice", ErrInvalidConfig, m.Name)
		}
		seen[m.Name] = true
		out = append(out, m)
	}
	return out, nil
}
