package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDraftJSON = `{
	"summary": "Patient presents with mildly elevated blood pressure.",
	"detailedAnalysis": "Systolic pressure of 138 is above the normal range.",
	"diagnosis": "Stage 1 hypertension",
	"recommendations": "Reduce sodium intake and re-measure in two weeks.",
	"urgencyLevel": "MEDIUM",
	"additionalNotes": ""
}`

func TestParseDraft(t *testing.T) {
	draft, err := ParseDraft(validDraftJSON)
	require.NoError(t, err)
	assert.Equal(t, "Stage 1 hypertension", draft.Diagnosis)
	assert.Equal(t, "MEDIUM", draft.UrgencyLevel)
	assert.Empty(t, draft.AdditionalNotes)
}

func TestParseDraftCodeFence(t *testing.T) {
	raw := "```json\n" + validDraftJSON + "\n```"
	draft, err := ParseDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, "Stage 1 hypertension", draft.Diagnosis)
}

func TestParseDraftSurroundingProse(t *testing.T) {
	raw := "Here is the report you asked for:\n" + validDraftJSON + "\nLet me know if you need anything else."
	draft, err := ParseDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", draft.UrgencyLevel)
}

func TestParseDraftNoJSON(t *testing.T) {
	_, err := ParseDraft("the patient seems fine")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestParseDraftMalformed(t *testing.T) {
	_, err := ParseDraft(`{"summary": }`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`prefix {"a":1} suffix`))
	assert.Equal(t, "", extractJSON("no braces here"))
	assert.Equal(t, "", extractJSON("} reversed {"))
}
