package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrivacySummary(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantError bool
	}{
		{
			name: "complete summary",
			json: `{"whatTheyCollect":["Browsing activity"],"whoTheyShareWith":["Google"],
				"howLongTheyKeep":"Up to 26 months.","keyRisks":["Cross-site profiling."],
				"trackerBreakdown":["Google: advertising"]}`,
		},
		{
			name: "optional fields omitted",
			json: `{"whatTheyCollect":[],"whoTheyShareWith":[],"keyRisks":[]}`,
		},
		{
			name: "null retention allowed",
			json: `{"whatTheyCollect":[],"whoTheyShareWith":[],"keyRisks":[],"howLongTheyKeep":null}`,
		},
		{
			name:      "missing required list",
			json:      `{"whatTheyCollect":[],"keyRisks":[]}`,
			wantError: true,
		},
		{
			name:      "list given as string",
			json:      `{"whatTheyCollect":"everything","whoTheyShareWith":[],"keyRisks":[]}`,
			wantError: true,
		},
		{
			name:      "non-string list item",
			json:      `{"whatTheyCollect":[1,2],"whoTheyShareWith":[],"keyRisks":[]}`,
			wantError: true,
		},
		{
			name:      "top-level array",
			json:      `[]`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrivacySummary(tt.json)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidatePrivacySummary_MalformedDocument(t *testing.T) {
	err := ValidatePrivacySummary(`{ invalid json }`)
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestCompile(t *testing.T) {
	s, err := Compile("person", `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`)
	require.NoError(t, err)

	assert.NoError(t, s.Validate(`{"name":"x"}`))

	err = s.Validate(`{}`)
	require.Error(t, err)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "validation against person failed")
}

func TestCompile_BadSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	require.Error(t, err)
	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "broken")
}

func TestPrivacySummarySchema_Embedded(t *testing.T) {
	assert.Contains(t, PrivacySummarySchema(), "whoTheyShareWith")

	_, err := Compile("privacy_summary.schema.json", PrivacySummarySchema())
	assert.NoError(t, err)
}
