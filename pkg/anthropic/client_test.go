package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "hello "},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "world"},
	}}
	assert.Equal(t, "hello world", resp.Text())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.Text())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	got := usage.EstimateCost("claude-sonnet-4-5-20250929")
	assert.InDelta(t, 3.00+7.50, got, 1e-9)

	got = usage.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80+2.00, got, 1e-9)

	assert.Equal(t, 0.0, usage.EstimateCost("some-unknown-model"))
	assert.Equal(t, 0.0, TokenUsage{}.EstimateCost("claude-haiku-4-5-20251001"))
}

func TestNewClient_Availability(t *testing.T) {
	assert.True(t, NewClient("sk-test").Available())
	assert.False(t, NewClient("").Available())
}

func TestNoop(t *testing.T) {
	var c Client = Noop{}
	assert.False(t, c.Available())

	_, err := c.CreateMessage(context.Background(), MessageRequest{})
	assert.Error(t, err)
}
