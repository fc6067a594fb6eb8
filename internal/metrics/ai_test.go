package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
	"github.com/sells-group/esg-intel/pkg/anthropic"
)

// fakeClient returns a canned response or error and records the last request.
type fakeClient struct {
	text    string
	err     error
	lastReq anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.text}},
	}, nil
}

func (f *fakeClient) Available() bool { return true }

func TestAIExtract_SupplementsAndAnchors(t *testing.T) {
	text := "Our water recycling rate improved. Water withdrawal fell to 300 megalitres in 2024."
	client := &fakeClient{text: `[
		{"category": "water", "phrase": "water withdrawal", "context": "Water withdrawal fell to 300 megalitres in 2024."},
		{"category": "water", "phrase": "not in the document at all", "context": ""},
		{"category": "unknown-category", "phrase": "water recycling", "context": ""}
	]`}

	e := NewAIExtractor(client, AIOptions{Model: "test-model"})
	out := e.Extract(context.Background(), "doc-1", text, structure.NewIndex(nil), nil)

	require.Len(t, out, 1)
	m := out[0]
	assert.Equal(t, model.CategoryWater, m.Category)
	assert.Equal(t, "water withdrawal", m.Match)
	assert.Equal(t, model.ProvenanceAIAssisted, m.Provenance)
	// Anchored case-insensitively to the document text.
	assert.Equal(t, 35, m.Offset)
	require.NotNil(t, m.NormalizedValue)
	assert.InDelta(t, 300, *m.NormalizedValue, 1e-9)
	assert.Equal(t, 2024, m.Year)
}

func TestAIExtract_SkipsDuplicatesOfPatternMetrics(t *testing.T) {
	text := "Water withdrawal fell to 300 megalitres."
	client := &fakeClient{text: `[{"category": "water", "phrase": "Water withdrawal", "context": ""}]`}
	existing := []model.ExtractedMetric{
		{Category: model.CategoryWater, Match: "water withdrawal"},
	}

	e := NewAIExtractor(client, AIOptions{})
	out := e.Extract(context.Background(), "doc-1", text, structure.NewIndex(nil), existing)
	assert.Empty(t, out)
}

func TestAIExtract_FencedJSON(t *testing.T) {
	text := "Hazardous waste totalled 12 tonnes."
	client := &fakeClient{text: "```json\n[{\"category\": \"waste\", \"phrase\": \"hazardous waste\", \"context\": \"\"}]\n```"}

	e := NewAIExtractor(client, AIOptions{})
	out := e.Extract(context.Background(), "doc-1", text, structure.NewIndex(nil), nil)

	require.Len(t, out, 1)
	assert.Equal(t, model.CategoryWaste, out[0].Category)
}

func TestAIExtract_RequestErrorIsNonFatal(t *testing.T) {
	client := &fakeClient{err: errors.New("api unavailable")}
	e := NewAIExtractor(client, AIOptions{})
	assert.Nil(t, e.Extract(context.Background(), "doc-1", "some text", structure.NewIndex(nil), nil))
}

func TestAIExtract_MalformedResponseIsNonFatal(t *testing.T) {
	client := &fakeClient{text: "I could not find any metrics."}
	e := NewAIExtractor(client, AIOptions{})
	assert.Nil(t, e.Extract(context.Background(), "doc-1", "some text", structure.NewIndex(nil), nil))
}

func TestAIExtract_TruncatesExcerpt(t *testing.T) {
	client := &fakeClient{text: `[]`}
	e := NewAIExtractor(client, AIOptions{ExcerptChars: 10})

	e.Extract(context.Background(), "doc-1", "0123456789abcdef", structure.NewIndex(nil), nil)
	require.Len(t, client.lastReq.Messages, 1)
	assert.Equal(t, "0123456789", client.lastReq.Messages[0].Content)
}
