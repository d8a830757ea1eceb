package translator

import (
	"errors"
	"fmt"
)

const msgFirstTurnModel = "Conversation must start with a user message after the system prompt."

// ValidationError reports a caller request that cannot be expressed upstream.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ToUpstream maps a chat completion request onto a generateContent request.
// The first system message becomes the system instruction and later ones are
// dropped. User turns stay "user", assistant turns become "model".
func ToUpstream(req *ChatCompletionRequest) (*GenerateContentRequest, error) {
	out := &GenerateContentRequest{Contents: make([]Content, 0, len(req.Messages))}
	for _, msg := range req.Messages {
		text := string(msg.Content)
		switch msg.Role {
		case RoleSystem:
			if out.SystemInstruction == nil {
				out.SystemInstruction = &Content{Parts: []Part{{Text: text}}}
			}
		case RoleUser:
			out.Contents = append(out.Contents, Content{Role: GeminiRoleUser, Parts: []Part{{Text: text}}})
		case RoleAssistant:
			out.Contents = append(out.Contents, Content{Role: GeminiRoleModel, Parts: []Part{{Text: text}}})
		default:
			return nil, &ValidationError{Message: fmt.Sprintf("Unsupported role: %s", msg.Role)}
		}
	}
	if len(out.Contents) > 0 && out.Contents[0].Role == GeminiRoleModel {
		return nil, &ValidationError{Message: msgFirstTurnModel}
	}
	return out, nil
}
