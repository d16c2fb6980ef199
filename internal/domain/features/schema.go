// Package features turns employee records into the numeric rows a model
// consumes: an Encoder applies the declared encoding schema and Align
// reconciles the result with the columns the model was trained on.
package features

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/okian/attrition/internal/domain/employee"
	"gopkg.in/yaml.v3"
)

//go:embed default_schema.yaml
var defaultSchemaYAML []byte

// BinaryField maps a field to 1 when it equals Positive and to 0 otherwise.
type BinaryField struct {
	Field    string `yaml:"field"`
	Positive string `yaml:"positive"`
}

// CategoricalField is one-hot encoded with Reference dropped.
type CategoricalField struct {
	Field     string   `yaml:"field"`
	Reference string   `yaml:"reference"`
	Values    []string `yaml:"values"`
}

// Schema is the declared, versioned encoding used at training time.
type Schema struct {
	Version     string             `yaml:"version"`
	Identifiers []string           `yaml:"identifiers"`
	Binary      []BinaryField      `yaml:"binary"`
	Numeric     []string           `yaml:"numeric"`
	Categorical []CategoricalField `yaml:"categorical"`

	columns []string
}

// DefaultSchema returns the schema bundled with the service.
func DefaultSchema() (*Schema, error) {
	return ParseSchema(defaultSchemaYAML)
}

// LoadSchema reads a schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a YAML schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) normalize() error {
	if strings.TrimSpace(s.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidSchema)
	}
	for i := range s.Binary {
		s.Binary[i].Positive = normalizeToken(s.Binary[i].Positive)
	}
	seen := make(map[string]struct{})
	add := func(col string) error {
		if _, dup := seen[col]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col)
		}
		seen[col] = struct{}{}
		s.columns = append(s.columns, col)
		return nil
	}
	for _, name := range s.Numeric {
		if err := add(name); err != nil {
			return err
		}
	}
	for i := range s.Categorical {
		c := &s.Categorical[i]
		c.Reference = normalizeToken(c.Reference)
		hasRef := false
		for j, v := range c.Values {
			v = normalizeToken(v)
			c.Values[j] = v
			if v == c.Reference {
				hasRef = true
				continue
			}
			if err := add(Indicator(c.Field, v)); err != nil {
				return err
			}
		}
		if !hasRef {
			return fmt.Errorf("%w: reference %q of %s is not one of its values", ErrInvalidSchema, c.Reference, c.Field)
		}
	}
	if len(s.columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	return nil
}

// Columns returns every column the schema produces, in training order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Width is the number of columns the schema produces.
func (s *Schema) Width() int { return len(s.columns) }

// Categories returns the allowed values of a categorical field.
func (s *Schema) Categories(field string) ([]string, bool) {
	for _, c := range s.Categorical {
		if c.Field == field {
			return c.Values, true
		}
	}
	return nil, false
}

// Indicator names the one-hot column for value of field.
func Indicator(field, value string) string {
	return field + "_" + value
}

// normalizeToken makes category comparison insensitive to surrounding
// whitespace and to composed vs decomposed accents.
func normalizeToken(s string) string {
	return employee.NormalizeToken(s)
}
