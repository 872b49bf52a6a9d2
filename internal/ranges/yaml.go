package ranges

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed data/range_table.schema.json data/icd10cm_chapters.yaml
var dataFS embed.FS

// yamlTable is the on-disk shape of a YAML or JSON range table.
type yamlTable struct {
	Kind    string `yaml:"kind"`
	Version string `yaml:"version"`
	Ranges  []struct {
		Name  string `yaml:"name"`
		Range string `yaml:"range"`
	} `yaml:"ranges"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func tableSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := dataFS.ReadFile("data/range_table.schema.json")
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("range_table.schema.json", bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("failed to load range table schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("range_table.schema.json")
	})
	return schema, schemaErr
}

// ParseYAML decodes a YAML (or JSON) range table after validating it against
// the embedded schema. A kind declared in the document overrides kind when
// kind is empty.
func ParseYAML(source string, data []byte, kind Kind) (*Table, error) {
	if err := validateDocument(source, data); err != nil {
		return nil, err
	}

	var doc yamlTable
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedRangeError{Source: source, Reason: err.Error()}
	}

	if kind == "" && doc.Kind != "" {
		k, err := ValidateKind(doc.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	rows := make([][2]string, len(doc.Ranges))
	for i, r := range doc.Ranges {
		rows[i] = [2]string{r.Name, r.Range}
	}
	return NewTable(kind, source, rows)
}

// validateDocument checks data against the range table schema. YAML is
// round-tripped through JSON so the validator sees JSON types.
func validateDocument(source string, data []byte) error {
	sch, err := tableSchema()
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &MalformedRangeError{Source: source, Reason: err.Error()}
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return &MalformedRangeError{Source: source, Reason: err.Error()}
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &MalformedRangeError{Source: source, Reason: err.Error()}
	}

	if err := sch.Validate(doc); err != nil {
		return &MalformedRangeError{Source: source, Reason: fmt.Sprintf("does not match schema: %v", err)}
	}
	return nil
}

// BuiltinChapters returns the embedded ICD-10-CM chapter table.
func BuiltinChapters() (*Table, error) {
	data, err := dataFS.ReadFile("data/icd10cm_chapters.yaml")
	if err != nil {
		return nil, err
	}
	return ParseYAML("builtin:icd10cm_chapters", data, KindChapter)
}
