package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_RoundTripThroughPipeline(t *testing.T) {
	for _, f := range Formats() {
		t.Run(string(f.ID), func(t *testing.T) {
			table, err := Template(f.ID)
			require.NoError(t, err)
			require.NotEmpty(t, table.Rows)
			assert.LessOrEqual(t, len(table.Rows), 2)

			parsed, err := Parse(f, table)
			require.NoError(t, err)

			c := Classify(parsed.Rows, nil)
			assert.Equal(t, len(table.Rows), c.Stats.ValidRows, "sample rows should be valid: %+v", c.Rows)
		})
	}
}

func TestTemplateColumns_IncludesEveryRequiredField(t *testing.T) {
	for _, f := range Formats() {
		cols := TemplateColumns(f)
		fields := map[string]bool{}
		for _, c := range cols {
			fields[c.Field] = c.Required
		}
		for _, spec := range f.Fields {
			if !spec.Required {
				continue
			}
			assert.True(t, fields[spec.Name], "%s template lacks %s", f.ID, spec.Name)
		}
	}
}

func TestTemplate_UnknownFormat(t *testing.T) {
	_, err := Template("amazon")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
