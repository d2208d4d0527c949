package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryLookup(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	assert.Equal(t, []string{VariantRisk, VariantAlignment, VariantProfile}, registry.Names())

	tests := map[string]string{
		"risk":      VariantRisk,
		" RISK ":    VariantRisk,
		"v1":        VariantRisk,
		"alignment": VariantAlignment,
		"V2":        VariantAlignment,
		"profile":   VariantProfile,
		"v3":        VariantProfile,
	}
	for key, want := range tests {
		v, err := registry.Lookup(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, v.Name, key)
	}

	_, err := registry.Lookup("v4")
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		variants []*Variant
	}{
		{name: "nil", variants: []*Variant{nil}},
		{name: "duplicate name", variants: []*Variant{RiskVariant(), RiskVariant()}},
		{
			name: "alias clash",
			variants: []*Variant{
				RiskVariant(),
				NewVariant("other", "", NewSchema(Text("r").AsReason()), "V1"),
			},
		},
		{name: "no reason field", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a")))}},
		{name: "no schema", variants: []*Variant{NewVariant("x", "", nil)}},
		{name: "empty schema", variants: []*Variant{NewVariant("x", "", NewSchema())}},
		{name: "duplicate field", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a").AsReason(), Text("a")))}},
		{name: "empty enum", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a").AsReason(), Enum("level")))}},
		{name: "zero length list", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a").AsReason(), StringList("l", 0)))}},
		{name: "reason on list", variants: []*Variant{NewVariant("x", "", NewSchema(StringList("l", 2).AsReason()))}},
		{name: "inverted range", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a").AsReason(), Number("n", 5, 1)))}},
		{name: "null passthrough", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a").AsReason(), Passthrough("p", JSONNull)))}},
		{name: "nested without schema", variants: []*Variant{NewVariant("x", "", NewSchema(Text("a").AsReason(), Object("o", nil)))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRegistry(tt.variants...)
			assert.Error(t, err)
		})
	}
}

func TestVariantDeclarations(t *testing.T) {
	t.Parallel()

	risk := RiskVariant()
	assert.Equal(t, "rationale", risk.ReasonField())
	level, ok := risk.Schema.Field("match_level")
	require.True(t, ok)
	assert.Equal(t, LevelWeak, level.Weakest())
	assert.Equal(t, []string{LevelStrong, LevelPartial, LevelWeak}, level.Allowed)

	assert.Equal(t, "summary", ProfileVariant().ReasonField())

	_, err := RiskVariant().WithDocumentSchema(`{"type": 12}`)
	assert.Error(t, err)
}
