package sanitize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_EndToEnd(t *testing.T) {
	model := &needleModel{needles: map[string]string{"John Doe": "person"}}
	sc := NewScanner(DefaultMatcher(), NewAdapter(model, []string{"person"}, 0.3), ScanOptions{})

	findings := sc.Scan(context.Background(), sampleText)
	require.Len(t, findings, 2)
	assert.Equal(t, "John Doe", findings[0].Text)
	assert.Equal(t, "person", findings[0].Label)
	assert.Equal(t, SourceModel, findings[0].Source)
	assert.Equal(t, "john.doe@example.com", findings[1].Text)
	assert.Equal(t, "email_address", findings[1].Label)
	assert.Equal(t, SourcePattern, findings[1].Source)

	safe, m := sc.Redact(sampleText, findings)
	assert.Equal(t, "My name is <PERSON_1> and my email is <EMAIL_ADDRESS_1>.", safe)
	assert.Equal(t, sampleText, m.Restore(safe))
}

func TestScanner_PatternWinsOverModel(t *testing.T) {
	text := "reach me at jane@corp.example please"
	model := fixedModel{{Text: "me at jane@corp.example please", Label: "person", Start: 6, End: len(text)}}
	sc := NewScanner(DefaultMatcher(), NewAdapter(model, nil, 0), ScanOptions{})

	findings := sc.Scan(context.Background(), text)
	require.NotEmpty(t, findings)
	for _, f := range findings {
		assert.Equal(t, SourcePattern, f.Source, "finding %+v", f)
	}
}

func TestScanner_ModelTextIsSourceSubstring(t *testing.T) {
	text := "Call Ann today"
	model := fixedModel{{Text: "ANN (normalized)", Label: "person", Start: 5, End: 8}}
	sc := NewScanner(nil, NewAdapter(model, nil, 0), ScanOptions{})

	findings := sc.Scan(context.Background(), text)
	require.Len(t, findings, 1)
	assert.Equal(t, "Ann", findings[0].Text)
}

func TestScanner_DropsBrokenOffsets(t *testing.T) {
	text := "Zoë here"
	model := fixedModel{
		{Label: "person", Start: 0, End: 3}, // splits ë
		{Label: "person", Start: 0, End: 4},
	}
	sc := NewScanner(nil, NewAdapter(model, nil, 0), ScanOptions{})

	findings := sc.Scan(context.Background(), text)
	require.Len(t, findings, 1)
	assert.Equal(t, "Zoë", findings[0].Text)
}

func TestScanner_Empty(t *testing.T) {
	sc := NewScanner(DefaultMatcher(), nil, ScanOptions{})
	assert.Nil(t, sc.Scan(context.Background(), ""))
	assert.Nil(t, sc.Scan(context.Background(), "nothing sensitive here"))

	safe, m := sc.Redact("nothing sensitive here", nil)
	assert.Equal(t, "nothing sensitive here", safe)
	assert.True(t, m.IsEmpty())
}

func TestMultiModel(t *testing.T) {
	ok := fixedModel{{Text: "a", Label: "x", Start: 0, End: 1}}
	broken := &needleModel{err: errModelDown}
	other := fixedModel{{Text: "b", Label: "y", Start: 2, End: 3}}

	got, err := MultiModel{ok, broken, other}.Predict(context.Background(), "a b", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []Finding{ok[0], other[0]}, got)

	_, err = MultiModel{broken}.Predict(context.Background(), "a b", nil, 0)
	assert.ErrorIs(t, err, errModelDown)

	got, err = MultiModel{}.Predict(context.Background(), "a b", nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
