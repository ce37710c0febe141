package analysis

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

const (
	// RecentInteractionsPerContact bounds the history included in the prompt
	RecentInteractionsPerContact = 3

	noHistory = "No previous interactions found."

	promptTemplate = `Analyze this interaction and provide insights in valid JSON format using this exact structure:
        {
            "topics_discussed": ["topic1", "topic2", ...],
            "action_items": ["action1", "action2", ...],
            "key_insights": ["insight1", "insight2", ...],
            "sentiment_score": <float between -1 and 1>,
            "follow_up_needed": <boolean>,
            "suggested_follow_up_date": "<YYYY-MM-DD>",
            "personal_info_mentioned": {"category1": "info1", "category2": "info2", ...},
            "conversation_context": "summary of how this interaction fits into the relationship"
        }

        Interaction to analyze:
        Title: %s
        Description: %s
        Date: %s
        Contacts: %s
        
        Recent Context:
        %s`
)

// ContactHistory is a contact together with its most recent interactions
type ContactHistory struct {
	Contact *entities.Contact
	Recent  []*entities.Interaction
}

// BuildContext renders the recent interaction history of the contacts
func BuildContext(histories []ContactHistory) string {
	var parts []string
	for _, h := range histories {
		if len(h.Recent) == 0 {
			continue
		}
		parts = append(parts, "\nRecent interactions with "+h.Contact.Name+":")
		for _, i := range h.Recent {
			parts = append(parts, fmt.Sprintf("- %s: %s", i.WasAt.Format("2006-01-02"), i.Title))
		}
	}
	if len(parts) == 0 {
		return noHistory
	}
	return strings.Join(parts, "\n")
}

// BuildPrompt renders the analysis request for an interaction
func BuildPrompt(interaction *entities.Interaction, context string) string {
	return fmt.Sprintf(promptTemplate,
		interaction.Title,
		interaction.Description,
		interaction.WasAt.Format("2006-01-02 15:04:05-07:00"),
		strings.Join(interaction.ContactNames(), ", "),
		context,
	)
}
