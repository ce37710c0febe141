package contact

import "time"

// StatusResponse reports how overdue a contact is
type StatusResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	StatusCode      int        `json:"status_code"`
	Urgency         int        `json:"urgency"`
	FrequencyInDays *int       `json:"frequency_in_days,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
}
