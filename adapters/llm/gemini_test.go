package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/satriahrh/supportchat/domain"
)

func TestToGeminiFoldsSystemTurns(t *testing.T) {
	contents, config := toGemini([]domain.Turn{
		{Role: domain.SystemRole, Content: "persona"},
		{Role: domain.UserRole, Content: "Hi"},
		{Role: domain.AssistantRole, Content: "Hello"},
	})

	require.NotNil(t, config)
	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	assert.Equal(t, "persona", config.SystemInstruction.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "Hi", contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
}

func TestToGeminiWithoutSystem(t *testing.T) {
	_, config := toGemini([]domain.Turn{{Role: domain.UserRole, Content: "Hi"}})
	assert.Nil(t, config)
}

func TestChunkText(t *testing.T) {
	assert.Equal(t, "", chunkText(nil))
	assert.Equal(t, "", chunkText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "He"}, {Text: "llo"}}},
		}},
	}
	assert.Equal(t, "Hello", chunkText(resp))
}
