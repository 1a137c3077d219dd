package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeralabs/hivemind-go/pkg/llm"
)

func TestBuildMessages(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
	}

	messages := llm.BuildMessages("sys", "how are you?", history)
	require.Len(t, messages, 4)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "sys"}, messages[0])
	assert.Equal(t, history[0], messages[1])
	assert.Equal(t, history[1], messages[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "how are you?"}, messages[3])
}

func TestBuildMessagesSkipsInvalidHistory(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "stray system turn"},
		{Role: "tool", Content: "tool output"},
		{Role: llm.RoleUser, Content: ""},
		{Role: llm.RoleAssistant, Content: "kept"},
	}

	messages := llm.BuildMessages("", "question", history)
	require.Len(t, messages, 2)
	assert.Equal(t, "kept", messages[0].Content)
	assert.Equal(t, "question", messages[1].Content)
}

func TestApplyGenerateOptionsDefaults(t *testing.T) {
	options := llm.ApplyGenerateOptions(nil)
	assert.Equal(t, 0.7, options.Temperature)
	assert.Equal(t, 4096, options.MaxTokens)
	assert.Equal(t, 1.0, options.TopP)
}

func TestApplyGenerateOptionsOverrides(t *testing.T) {
	options := llm.ApplyGenerateOptions([]llm.GenerateOption{
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(128),
		llm.WithTopP(0.9),
	})
	assert.Equal(t, 0.3, options.Temperature)
	assert.Equal(t, 128, options.MaxTokens)
	assert.Equal(t, 0.9, options.TopP)
}
