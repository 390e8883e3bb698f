package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

//go:embed schemas.json
var embeddedSchemas []byte

var ErrSchemaNotFound = errors.New("SCHEMA_NOT_FOUND")

// Default returns the registry compiled into the binary.
func Default() (*SchemaRegistry, error) {
	return parse(embeddedSchemas)
}

// LoadRegistry reads a registry file, for overriding the embedded schemas.
func LoadRegistry(path string) (*SchemaRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*SchemaRegistry, error) {
	var reg SchemaRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

func (r *SchemaRegistry) Get(id string) (*SchemaDefinition, error) {
	for i := range r.Schemas {
		if r.Schemas[i].ID == id {
			return &r.Schemas[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, id)
}
