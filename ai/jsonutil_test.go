package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"season\":\"autumn\"}\n```", `{"season":"autumn"}`},
		{"prose around", `Here you go: {"x":{"y":2}} hope it helps`, `{"x":{"y":2}}`},
		{"brace in string", `{"note":"use } carefully","n":1}`, `{"note":"use } carefully","n":1}`},
		{"escaped quote", `{"q":"say \"hi\" {"}`, `{"q":"say \"hi\" {"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	_, err := ExtractJSON("no payload here")
	assert.ErrorIs(t, err, ErrNoJSON)
	_, err = ExtractJSON(`{"open": true`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Score    float64  `json:"score"`
		Concerns []string `json:"concerns"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"score\": 72.5, \"concerns\": [\"dryness\"]}\n```", &out))
	assert.Equal(t, 72.5, out.Score)
	assert.Equal(t, []string{"dryness"}, out.Concerns)
}

func TestAnalysisPrompt(t *testing.T) {
	sys, prompt, err := AnalysisPrompt("hair", map[string]string{"hair_length": "long", "concerns": "frizz", "empty": " "})
	require.NoError(t, err)
	assert.NotEmpty(t, sys)
	assert.Contains(t, prompt, "- concerns: frizz\n- hair_length: long\n")
	assert.NotContains(t, prompt, "empty")

	_, _, err = AnalysisPrompt("tattoo", nil)
	assert.Error(t, err)
}
