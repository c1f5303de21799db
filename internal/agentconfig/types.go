// Package agentconfig stores the per-account AI agent behavior settings.
package agentconfig

import (
	"errors"
	"time"
)

const (
	LanguageArabic  = "ar"
	LanguageFrench  = "fr"
	LanguageEnglish = "en"
)

const (
	DefaultSystemPrompt = "You are a helpful AI sales assistant for an e-commerce business."
	DefaultLanguage     = LanguageFrench
	DefaultTone         = "friendly"
	DefaultPersonality  = "professional"
)

// ErrInvalid wraps validation failures of an upsert request.
var ErrInvalid = errors.New("invalid agent config")

// Config is one account's agent configuration. GeminiAPIKey never leaves the
// process through JSON; HasGeminiAPIKey reports its presence instead.
type Config struct {
	AccountID         string    `json:"user_id"`
	SystemPrompt      string    `json:"system_prompt"`
	Language          string    `json:"language"`
	Tone              string    `json:"tone"`
	Personality       string    `json:"personality"`
	AutoRespond       bool      `json:"auto_respond"`
	OrderConfirmation bool      `json:"order_confirmation"`
	FollowUp          bool      `json:"follow_up"`
	Escalation        bool      `json:"escalation"`
	GeminiModel       string    `json:"gemini_model,omitempty"`
	GeminiAPIKey      string    `json:"-"`
	HasGeminiAPIKey   bool      `json:"has_gemini_api_key"`
	Configured        bool      `json:"configured"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// Defaults is what an account sees before saving any configuration. The
// model is left empty so the admin-wide default keeps applying.
func Defaults(accountID string) Config {
	return Config{
		AccountID:         accountID,
		SystemPrompt:      DefaultSystemPrompt,
		Language:          DefaultLanguage,
		Tone:              DefaultTone,
		Personality:       DefaultPersonality,
		AutoRespond:       true,
		OrderConfirmation: true,
		FollowUp:          true,
		Escalation:        true,
	}
}

// UpsertRequest updates an account's configuration. Nil booleans keep the
// current value. A nil GeminiAPIKey keeps the stored key; an empty string
// clears it.
type UpsertRequest struct {
	SystemPrompt      *string `json:"system_prompt,omitempty" validate:"omitempty,max=8000"`
	Language          *string `json:"language,omitempty" validate:"omitempty,oneof=ar fr en"`
	Tone              *string `json:"tone,omitempty" validate:"omitempty,oneof=professional friendly casual"`
	Personality       *string `json:"personality,omitempty" validate:"omitempty,max=500"`
	AutoRespond       *bool   `json:"auto_respond,omitempty"`
	OrderConfirmation *bool   `json:"order_confirmation,omitempty"`
	FollowUp          *bool   `json:"follow_up,omitempty"`
	Escalation        *bool   `json:"escalation,omitempty"`
	GeminiModel       *string `json:"gemini_model,omitempty" validate:"omitempty,model_name"`
	GeminiAPIKey      *string `json:"gemini_api_key,omitempty" validate:"omitempty,max=256"`
}
