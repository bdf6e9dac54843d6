// Package validator wraps go-playground/validator with the tags used by request DTOs.
package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// MaxConversationIDLength bounds conversation ids; they end up in object keys and task ids.
const MaxConversationIDLength = 128

var (
	// conversation ids are opaque platform tokens; no slashes, whitespace or control bytes.
	conversationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:.]+$`)
	// dialable accepts the characters people type into a phone field. Real parsing happens in platform/phone.
	dialablePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,}$`)
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("conversation_id", func(fl validator.FieldLevel) bool {
		return ConversationID(fl.Field().String())
	})
	_ = v.RegisterValidation("dialable", func(fl validator.FieldLevel) bool {
		return dialablePattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// ConversationID reports whether id is safe to use as a conversation identifier.
func ConversationID(id string) bool {
	return len(id) <= MaxConversationIDLength && conversationIDPattern.MatchString(id)
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}
