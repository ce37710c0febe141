package presenter

import (
	"time"

	contactDTO "github.com/johnquangdev/networking/internal/adapter/dto/contact"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
)

var statusLabels = map[entities.ContactStatus]string{
	entities.ContactStatusHidden:     "Hidden",
	entities.ContactStatusInTouch:    "In touch",
	entities.ContactStatusOutOfTouch: "Out of touch",
}

// StatusLabel returns the display label of a contact status
func StatusLabel(s entities.ContactStatus) string {
	return statusLabels[s]
}

// ContactRow is a contact in a list or dashboard card
type ContactRow struct {
	ID              string
	URL             string
	Name            string
	Status          string
	StatusClass     string
	Urgency         int
	FrequencyInDays int
	DueDate         string
	LastInteraction string
	Count           int64
}

// ContactView is the contact detail page
type ContactView struct {
	ContactRow
	Description  string
	LinkedinURL  string
	TwitterURL   string
	Emails       []string
	Phones       []string
	Interactions []InteractionRow
	Duplicates   []DuplicateRow
}

// DuplicateRow is a potential duplicate of a contact
type DuplicateRow struct {
	Contact    ContactLink
	Similarity int // percent
}

// ToContactRow summarises c as seen at now
func ToContactRow(c *entities.Contact, now time.Time, loc *time.Location) ContactRow {
	id := c.ID.String()
	status := c.StatusAt(now)
	row := ContactRow{
		ID:          id,
		URL:         ContactURL(id),
		Name:        c.Name,
		Status:      StatusLabel(status),
		StatusClass: status.String(),
		Urgency:     c.UrgencyAt(now),
	}
	if c.FrequencyInDays != nil {
		row.FrequencyInDays = *c.FrequencyInDays
	}
	if due := c.DueDateAt(now); due != nil {
		row.DueDate = due.In(loc).Format(DateLayout)
	}
	if last := c.LastInteraction(); last != nil {
		row.LastInteraction = last.WasAt.In(loc).Format(DateLayout)
	}
	return row
}

// ToContactRows summarises a list of contacts
func ToContactRows(contacts []*entities.Contact, now time.Time, loc *time.Location) []ContactRow {
	rows := make([]ContactRow, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, ToContactRow(c, now, loc))
	}
	return rows
}

// ToCountRows summarises ranked contacts with their interaction counts
func ToCountRows(counts []repositories.ContactCount, now time.Time, loc *time.Location) []ContactRow {
	rows := make([]ContactRow, 0, len(counts))
	for _, cc := range counts {
		row := ToContactRow(cc.Contact, now, loc)
		row.Count = cc.Count
		rows = append(rows, row)
	}
	return rows
}

// ToContactView builds the contact detail page
func ToContactView(c *entities.Contact, interactions []*entities.Interaction, dups []*entities.ContactDuplicate, now time.Time, loc *time.Location) *ContactView {
	v := &ContactView{
		ContactRow:   ToContactRow(c, now, loc),
		Interactions: ToInteractionRows(interactions, loc),
	}
	if c.Description != nil {
		v.Description = *c.Description
	}
	if c.LinkedinURL != nil {
		v.LinkedinURL = *c.LinkedinURL
	}
	if c.TwitterURL != nil {
		v.TwitterURL = *c.TwitterURL
	}
	for _, e := range c.EmailAddresses {
		v.Emails = append(v.Emails, e.Email)
	}
	for _, p := range c.PhoneNumbers {
		v.Phones = append(v.Phones, p.PhoneNumber)
	}
	for _, d := range dups {
		if d.OtherContact == nil {
			continue
		}
		other := toContactLinks([]*entities.Contact{d.OtherContact})[0]
		v.Duplicates = append(v.Duplicates, DuplicateRow{Contact: other, Similarity: int(d.Similarity*100 + 0.5)})
	}
	return v
}

// ToStatusResponse converts a contact to the status API DTO
func ToStatusResponse(c *entities.Contact, now time.Time) *contactDTO.StatusResponse {
	status := c.StatusAt(now)
	r := &contactDTO.StatusResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		Status:          status.String(),
		StatusCode:      int(status),
		Urgency:         c.UrgencyAt(now),
		FrequencyInDays: c.FrequencyInDays,
		DueDate:         c.DueDateAt(now),
	}
	if last := c.LastInteraction(); last != nil {
		at := last.WasAt
		r.LastInteraction = &at
	}
	return r
}
