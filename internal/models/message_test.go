package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTextFlatContent(t *testing.T) {
	m := Message{Role: RoleUser, Content: "Who won 2023?"}
	assert.Equal(t, "Who won 2023?", m.Text())
}

func TestMessageTextParts(t *testing.T) {
	m := Message{
		Role: RoleUser,
		Parts: []MessagePart{
			{Type: "text", Text: "Who won "},
			{Type: "text", Text: "2023?"},
		},
	}
	assert.Equal(t, "Who won 2023?", m.Text())
}

func TestMessageTextSkipsNonTextParts(t *testing.T) {
	m := Message{
		Role: RoleUser,
		Parts: []MessagePart{
			{Type: "image", Text: "ignored"},
			{Type: "text", Text: "visible"},
		},
	}
	assert.Equal(t, "visible", m.Text())
}

func TestMessageTextPartsTakePrecedence(t *testing.T) {
	m := Message{
		Role:    RoleUser,
		Content: "flat",
		Parts:   []MessagePart{{Type: "text", Text: "structured"}},
	}
	assert.Equal(t, "structured", m.Text())
}

func TestMessageUnmarshalBothShapes(t *testing.T) {
	var flat, structured Message

	require.NoError(t, json.Unmarshal(
		[]byte(`{"role":"user","content":"Who won 2023?"}`), &flat))
	require.NoError(t, json.Unmarshal(
		[]byte(`{"role":"user","parts":[{"type":"text","text":"Who won 2023?"}]}`), &structured))

	assert.Equal(t, flat.Text(), structured.Text())
}

func TestLatestUserText(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "an answer"},
		{Role: RoleUser, Content: "follow-up"},
		{Role: RoleAssistant, Content: "another answer"},
	}
	assert.Equal(t, "follow-up", LatestUserText(messages))
}

func TestLatestUserTextNoUserMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "instructions"},
		{Role: RoleAssistant, Content: "hello"},
	}
	assert.Empty(t, LatestUserText(messages))
	assert.Empty(t, LatestUserText(nil))
}
