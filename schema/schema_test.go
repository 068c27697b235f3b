package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFieldTypeRoundTrip(t *testing.T) {
	for _, typ := range []FieldType{TypeNone, TypeNumber, TypeString, TypeDate, TypeBoolean, TypeInteger} {
		parsed, err := ParseFieldType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	parsed, err := ParseFieldType("")
	require.NoError(t, err)
	assert.Equal(t, TypeNone, parsed)

	_, err = ParseFieldType("varchar")
	assert.Error(t, err)
}

func TestSchemaSearch(t *testing.T) {
	s := Schema{
		{Name: "state", Type: TypeString, Length: 2},
		{Name: "sales", Type: TypeNumber},
	}

	f, ok := s.Search("state")
	require.True(t, ok)
	assert.Equal(t, TypeString, f.Type)
	assert.Equal(t, 2, f.Length)

	_, ok = s.Search("missing")
	assert.False(t, ok)

	assert.True(t, s.Contains("sales"))
	assert.False(t, s.Contains("missing"))
	assert.Equal(t, []string{"state", "sales"}, s.Names())
}

func TestSchemaUnmarshalYAML(t *testing.T) {
	text := `
- name: state
  type: string
  length: 2
- name: created
  type: date
  conversionMask: yyyy-MM-dd
- name: sales
  type: integer
`
	var s Schema
	require.NoError(t, yaml.Unmarshal([]byte(text), &s))
	require.Len(t, s, 3)
	assert.Equal(t, TypeString, s[0].Type)
	assert.Equal(t, TypeDate, s[1].Type)
	assert.Equal(t, "yyyy-MM-dd", s[1].ConversionMask)
	assert.Equal(t, TypeInteger, s[2].Type)

	var bad Schema
	assert.Error(t, yaml.Unmarshal([]byte("- name: x\n  type: varchar\n"), &bad))
}
