package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beybot/beybot/internal/agentconfig"
	"github.com/beybot/beybot/internal/catalog"
)

func TestBuildSystemPromptDefaults(t *testing.T) {
	t.Parallel()

	prompt := BuildSystemPrompt(agentconfig.Config{Tone: "friendly"}, nil)

	assert.True(t, strings.HasPrefix(prompt, "You are a helpful AI sales assistant.\n\n"))
	assert.Contains(t, prompt, "You must respond in English.")
	assert.Contains(t, prompt, "Your tone should be friendly.")
	assert.NotContains(t, prompt, "Your personality:")
	assert.NotContains(t, prompt, "Available Products:")
	assert.Contains(t, prompt, "- Wait for manual approval before responding")
	assert.Contains(t, prompt, "- Process orders without explicit confirmation")
	assert.Contains(t, prompt, "- Do not send follow-up messages")
	assert.Contains(t, prompt, "- Handle all issues independently")
	assert.True(t, strings.HasSuffix(prompt, closingLine))
}

func TestBuildSystemPromptFullConfig(t *testing.T) {
	t.Parallel()

	cfg := agentconfig.Config{
		SystemPrompt:      "Tu vends des chaussures.",
		Language:          agentconfig.LanguageFrench,
		Tone:              "casual",
		Personality:       "warm and concise",
		AutoRespond:       true,
		OrderConfirmation: true,
		FollowUp:          true,
		Escalation:        true,
	}
	products := []catalog.Product{
		{Name: "Sneaker", Description: "White leather", Price: 89.5, Stock: 3, Category: "Shoes"},
		{Name: "Socks", Price: 10, Stock: 0},
	}

	prompt := BuildSystemPrompt(cfg, products)

	assert.True(t, strings.HasPrefix(prompt, "Tu vends des chaussures."))
	assert.Contains(t, prompt, "You must respond in French.")
	assert.Contains(t, prompt, "Your personality: warm and concise")
	assert.Contains(t, prompt, "Available Products:\n"+
		"- Sneaker: White leather | Price: 89.5 TND | Stock: 3 | Category: Shoes\n"+
		"- Socks: No description | Price: 10 TND | Stock: 0 | Category: Uncategorized\n")
	assert.Contains(t, prompt, "- Respond automatically to customer messages")
	assert.Contains(t, prompt, "- Always confirm order details before processing")
	assert.Contains(t, prompt, "- Send follow-up messages to inactive conversations")
	assert.Contains(t, prompt, "- Escalate complex issues to human agents when necessary")
}

func TestBuildSystemPromptLayout(t *testing.T) {
	t.Parallel()

	cfg := agentconfig.Config{Language: "en", Tone: "professional", AutoRespond: true}
	want := "You are a helpful AI sales assistant.\n" +
		"\n" +
		"You must respond in English.\n" +
		"Your tone should be professional.\n" +
		"\n" +
		"\n" +
		"\n" +
		"\n" +
		"Workflow Guidelines:\n" +
		"- Respond automatically to customer messages\n" +
		"- Process orders without explicit confirmation\n" +
		"- Do not send follow-up messages\n" +
		"- Handle all issues independently\n" +
		"\n" +
		"\n" +
		closingLine
	assert.Equal(t, want, BuildSystemPrompt(cfg, nil))

	cfg.Personality = "calm"
	withProducts := BuildSystemPrompt(cfg, []catalog.Product{{Name: "Cap", Price: 25, Stock: 4}})
	assert.Contains(t, withProducts, "Your personality: calm\n"+
		"\n"+
		"\n"+
		"Available Products:\n"+
		"- Cap: No description | Price: 25 TND | Stock: 4 | Category: Uncategorized\n"+
		"\n"+
		"\n"+
		"Workflow Guidelines:\n")
}

func TestLanguageName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"ar": "Arabic",
		"fr": "French",
		"en": "English",
		"":   "English",
		"de": "English",
	}
	for code, want := range cases {
		assert.Equal(t, want, languageName(code), code)
	}
}
