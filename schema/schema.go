/*
 * Copyright 2025 The RowPipe Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package schema describes the row layout a data service exposes.
// A Schema is an ordered list of field descriptors and is treated as an
// immutable snapshot for the duration of one plan compilation.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldType enumerates the value types a service field can carry.
type FieldType int

const (
	TypeNone FieldType = iota
	TypeNumber
	TypeString
	TypeDate
	TypeBoolean
	TypeInteger
)

// String returns the lowercase name of the type.
func (t FieldType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeDate:
		return "date"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	default:
		return "unknown"
	}
}

// ParseFieldType resolves a type name back to its FieldType.
func ParseFieldType(name string) (FieldType, error) {
	switch name {
	case "", "none":
		return TypeNone, nil
	case "number":
		return TypeNumber, nil
	case "string":
		return TypeString, nil
	case "date":
		return TypeDate, nil
	case "boolean":
		return TypeBoolean, nil
	case "integer":
		return TypeInteger, nil
	default:
		return TypeNone, fmt.Errorf("unknown field type: %s", name)
	}
}

// UnmarshalYAML decodes a field type from its name.
func (t *FieldType) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseFieldType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes a field type as its name.
func (t FieldType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Field describes one column of the service row layout.
type Field struct {
	Name           string    `yaml:"name" json:"name"`
	Type           FieldType `yaml:"type" json:"type"`
	Length         int       `yaml:"length,omitempty" json:"length,omitempty"`
	Precision      int       `yaml:"precision,omitempty" json:"precision,omitempty"`
	ConversionMask string    `yaml:"conversionMask,omitempty" json:"conversionMask,omitempty"`
}

// Schema is the ordered field list of a service.
type Schema []Field

// Search returns the field with the given name, if present.
func (s Schema) Search(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Contains reports whether a field with the given name exists.
func (s Schema) Contains(name string) bool {
	_, ok := s.Search(name)
	return ok
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}
