package sanitize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int, replace map[int]string) string {
	words := make([]string, n)
	for i := range words {
		if w, ok := replace[i]; ok {
			words[i] = w
			continue
		}
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestAdapter_ShortTextSingleCall(t *testing.T) {
	model := &needleModel{needles: map[string]string{"Alice": "person"}}
	a := NewAdapter(model, []string{"person"}, 0.5)

	text := "Alice met Bob"
	got := a.Scan(context.Background(), text, 300, 50)
	require.Len(t, got, 1)
	assert.Equal(t, Finding{Text: "Alice", Label: "person", Score: 0.9, Start: 0, End: 5, Source: SourceModel}, got[0])
	assert.Equal(t, []string{text}, model.calls())
}

func TestAdapter_BlankText(t *testing.T) {
	model := &needleModel{}
	a := NewAdapter(model, nil, 0)
	assert.Nil(t, a.Scan(context.Background(), "  \n\t ", 300, 50))
	assert.Empty(t, model.calls())
}

func TestAdapter_NilSafe(t *testing.T) {
	var a *Adapter
	assert.Nil(t, a.Scan(context.Background(), "some text", 300, 50))
}

func TestAdapter_ChunkOffsets(t *testing.T) {
	text := numberedWords(500, map[int]string{310: "TARGET"})
	model := &needleModel{needles: map[string]string{"TARGET": "person"}}
	a := NewAdapter(model, nil, 0)

	got := a.Scan(context.Background(), text, 300, 50)

	calls := model.calls()
	require.Len(t, calls, 2)
	assert.True(t, strings.HasPrefix(calls[0], "w0 "))
	assert.True(t, strings.HasSuffix(calls[0], " w299"))
	assert.True(t, strings.HasPrefix(calls[1], "w250 "))
	assert.True(t, strings.HasSuffix(calls[1], " w499"))

	require.Len(t, got, 1)
	want := strings.Index(text, "TARGET")
	assert.Equal(t, want, got[0].Start)
	assert.Equal(t, want+len("TARGET"), got[0].End)
	assert.Equal(t, "TARGET", text[got[0].Start:got[0].End])
}

func TestAdapter_OverlapReportsBothWindows(t *testing.T) {
	text := numberedWords(500, map[int]string{270: "TARGET"})
	model := &needleModel{needles: map[string]string{"TARGET": "person"}}
	got := NewAdapter(model, nil, 0).Scan(context.Background(), text, 300, 50)

	require.Len(t, got, 2)
	want := strings.Index(text, "TARGET")
	for _, f := range got {
		assert.Equal(t, want, f.Start)
	}
	assert.Len(t, Dedup(got), 1)
}

func TestAdapter_IrregularWhitespace(t *testing.T) {
	text := "a  b\t\tc\n\nd e TARGET f"
	model := &needleModel{needles: map[string]string{"TARGET": "x"}}
	got := NewAdapter(model, nil, 0).Scan(context.Background(), text, 3, 1)

	require.NotEmpty(t, got)
	for _, f := range got {
		assert.Equal(t, "TARGET", text[f.Start:f.End])
	}
	for _, c := range model.calls() {
		assert.Contains(t, text, c)
	}
}

func TestAdapter_ModelErrorFailsSoft(t *testing.T) {
	model := &needleModel{err: errModelDown}
	a := NewAdapter(model, nil, 0)
	assert.Empty(t, a.Scan(context.Background(), numberedWords(700, nil), 300, 50))
	assert.Len(t, model.calls(), 3)
}

func TestAdapter_DropsSpansOutsideChunk(t *testing.T) {
	model := fixedModel{
		{Text: "ok", Label: "x", Start: 0, End: 2},
		{Text: "bad", Label: "x", Start: 5, End: 500},
		{Text: "neg", Label: "x", Start: -1, End: 2},
	}
	got := NewAdapter(model, nil, 0).Scan(context.Background(), "ok then", 300, 50)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Text)
}

func TestSplitWords(t *testing.T) {
	text := " héllo  wörld\nx "
	words := splitWords(text)
	require.Len(t, words, 3)
	assert.Equal(t, "héllo", text[words[0].start:words[0].end])
	assert.Equal(t, "wörld", text[words[1].start:words[1].end])
	assert.Equal(t, "x", text[words[2].start:words[2].end])
}
