package invoker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

func TestFromGenAIResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Cancel "}, nil, {Text: "Hulu."}}},
			SafetyRatings: []*genai.SafetyRating{
				{Category: genai.HarmCategoryHarassment},
				{Category: genai.HarmCategoryHateSpeech},
			},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 9, CandidatesTokenCount: 4},
	}

	out := fromGenAIResponse(resp)
	assert.Equal(t, "Cancel Hulu.", out.Text)
	assert.Len(t, out.Annotations, 2)
	assert.Equal(t, int64(9), gjson.GetBytes(out.Usage, "promptTokenCount").Int())
	assert.Equal(t, int64(4), gjson.GetBytes(out.Usage, "candidatesTokenCount").Int())
}

func TestFromGenAIResponse_Empty(t *testing.T) {
	out := fromGenAIResponse(nil)
	assert.Empty(t, out.Text)
	assert.Nil(t, out.Annotations)

	out = fromGenAIResponse(&genai.GenerateContentResponse{})
	assert.Empty(t, out.Text)
	assert.Nil(t, out.Usage)
}

func TestToGenAISchema(t *testing.T) {
	s := toGenAISchema(SuggestionsSchema)
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"suggestions"}, s.Required)

	items := s.Properties["suggestions"].Items
	require.NotNil(t, items)
	assert.Equal(t, genai.TypeArray, items.Properties["targetIds"].Type)
	assert.Equal(t, []string{"low", "medium", "high"}, items.Properties["confidence"].Enum)
	assert.Nil(t, toGenAISchema(nil))
}

func TestNewGenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewGenAIProvider(context.Background(), "")
	assert.Error(t, err)
}
