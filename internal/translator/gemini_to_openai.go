package translator

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoContent means the upstream response carried no candidate or no part.
var ErrNoContent = errors.New("no content found in upstream response")

// now is swapped in tests.
var now = time.Now

// FromUpstream builds a single-choice chat completion from the first part of
// the first candidate. Any further candidates are ignored.
func FromUpstream(resp *GenerateContentResponse, model string) (*ChatCompletionResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoContent
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	return &ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: now().Unix(),
		Model:   model,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ChatMessage{Role: RoleAssistant, Content: MessageContent(text)},
			FinishReason: "stop",
		}},
	}, nil
}

const (
	modelsPrefix     = "models/"
	methodGenerate   = "generateContent"
	embeddingMarker  = "embedding"
	modelOwner       = "google"
	modelCreatedStub = 1
)

// ToModelList keeps chat-capable, non-embedding models and strips the
// "models/" prefix from their names.
func ToModelList(in *GeminiModelList) *ModelList {
	out := &ModelList{Object: "list", Data: []ModelObject{}}
	if in == nil {
		return out
	}
	for _, m := range in.Models {
		if !supports(m.SupportedGenerationMethods, methodGenerate) {
			continue
		}
		if strings.Contains(m.Name, embeddingMarker) {
			continue
		}
		out.Data = append(out.Data, ModelObject{
			ID:      strings.TrimPrefix(m.Name, modelsPrefix),
			Object:  "model",
			Created: modelCreatedStub,
			OwnedBy: modelOwner,
		})
	}
	return out
}

func supports(methods []string, want string) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}
