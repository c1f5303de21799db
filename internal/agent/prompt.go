package agent

import (
	"strconv"
	"strings"

	"github.com/beybot/beybot/internal/agentconfig"
	"github.com/beybot/beybot/internal/catalog"
)

const (
	fallbackSystemPrompt = "You are a helpful AI sales assistant."
	closingLine          = "Remember to be helpful, accurate, and focused on assisting customers with their needs."
)

// BuildSystemPrompt renders the system instruction sent with every reply
// request: the account's base prompt, language and tone directives, the
// product list and the workflow guidelines. Lines stay in place when a
// section is empty, so the layout is the same for every account.
func BuildSystemPrompt(cfg agentconfig.Config, products []catalog.Product) string {
	var b strings.Builder

	base := cfg.SystemPrompt
	if strings.TrimSpace(base) == "" {
		base = fallbackSystemPrompt
	}
	b.WriteString(base)
	b.WriteString("\n\n")

	b.WriteString("You must respond in " + languageName(cfg.Language) + ".\n")
	b.WriteString("Your tone should be " + cfg.Tone + ".\n")
	if cfg.Personality != "" {
		b.WriteString("Your personality: " + cfg.Personality)
	}
	b.WriteString("\n")

	if len(products) > 0 {
		b.WriteString("\n\nAvailable Products:\n")
		lines := make([]string, 0, len(products))
		for _, p := range products {
			lines = append(lines, productLine(p))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n")

	b.WriteString("\n\nWorkflow Guidelines:\n")
	b.WriteString("- " + pick(cfg.AutoRespond, "Respond automatically to customer messages", "Wait for manual approval before responding") + "\n")
	b.WriteString("- " + pick(cfg.OrderConfirmation, "Always confirm order details before processing", "Process orders without explicit confirmation") + "\n")
	b.WriteString("- " + pick(cfg.FollowUp, "Send follow-up messages to inactive conversations", "Do not send follow-up messages") + "\n")
	b.WriteString("- " + pick(cfg.Escalation, "Escalate complex issues to human agents when necessary", "Handle all issues independently") + "\n")
	b.WriteString("\n\n")

	b.WriteString(closingLine)
	return b.String()
}

func languageName(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case agentconfig.LanguageArabic:
		return "Arabic"
	case agentconfig.LanguageFrench:
		return "French"
	default:
		return "English"
	}
}

func productLine(p catalog.Product) string {
	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = "No description"
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = "Uncategorized"
	}
	return "- " + p.Name + ": " + description +
		" | Price: " + strconv.FormatFloat(p.Price, 'f', -1, 64) + " TND" +
		" | Stock: " + strconv.Itoa(p.Stock) +
		" | Category: " + category
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
