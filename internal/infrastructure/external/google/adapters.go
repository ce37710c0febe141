package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// EmailTitleDefault is used for emails without a subject
	EmailTitleDefault = "Email without subject"
	// EventTitleDefault is used for calendar events without a summary
	EventTitleDefault = "Calendar event without title"
)

var emailPattern = regexp.MustCompile(`[A-z0-9_.+-]+@[A-z0-9_.-]+\.[A-z]+`)

// ErrHeaderParsing is returned when a header carries no email address
var ErrHeaderParsing = errors.New("header parsing failed")

// ExtractEmails returns the distinct lower-cased addresses found in a header value
func ExtractEmails(header string) ([]string, error) {
	matches := emailPattern.FindAllString(header, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrHeaderParsing, header)
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

// EmailDirection tells whether the user sent or received an email
type EmailDirection string

const (
	DirectionIncoming EmailDirection = "incoming"
	DirectionOutgoing EmailDirection = "outgoing"
	DirectionUnknown  EmailDirection = ""
)

type gmailMessage struct {
	ID           string `json:"id"`
	Snippet      string `json:"snippet"`
	InternalDate string `json:"internalDate"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

// GmailEmail gives typed access to a stored Gmail metadata message
type GmailEmail struct {
	msg     gmailMessage
	headers map[string]string
}

// NewGmailEmail parses the raw message JSON
func NewGmailEmail(data []byte) (*GmailEmail, error) {
	var msg gmailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid gmail message: %w", err)
	}
	headers := make(map[string]string, len(msg.Payload.Headers))
	for _, h := range msg.Payload.Headers {
		headers[h.Name] = h.Value
	}
	return &GmailEmail{msg: msg, headers: headers}, nil
}

// ID returns the Gmail message id
func (e *GmailEmail) ID() string { return e.msg.ID }

// Headers returns the header values by name
func (e *GmailEmail) Headers() map[string]string { return e.headers }

// Subject returns the subject header, possibly empty
func (e *GmailEmail) Subject() string { return e.headers["Subject"] }

// Snippet returns the message snippet
func (e *GmailEmail) Snippet() string { return e.msg.Snippet }

// ToEmails returns the recipients; no To header means none
func (e *GmailEmail) ToEmails() ([]string, error) {
	to := e.headers["To"]
	if to == "" {
		return nil, nil
	}
	return ExtractEmails(to)
}

// FromEmail returns the first sender address
func (e *GmailEmail) FromEmail() (string, error) {
	from, ok := e.headers["From"]
	if !ok {
		return "", fmt.Errorf("%w: missing From header", ErrHeaderParsing)
	}
	emails, err := ExtractEmails(from)
	if err != nil {
		return "", err
	}
	return emails[0], nil
}

// Date returns the internal date in UTC
func (e *GmailEmail) Date() (time.Time, error) {
	ms, err := strconv.ParseInt(e.msg.InternalDate, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid internalDate %q: %w", e.msg.InternalDate, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// Direction classifies the email relative to the user's own addresses.
// An email the user sent to themselves is unknown.
func (e *GmailEmail) Direction(userEmails []string) EmailDirection {
	from, _ := e.FromEmail()
	to, _ := e.ToEmails()

	inFrom, inTo := false, false
	for _, u := range userEmails {
		if u == from {
			inFrom = true
		}
		for _, t := range to {
			if u == t {
				inTo = true
			}
		}
	}

	switch {
	case inFrom && inTo:
		return DirectionUnknown
	case inFrom:
		return DirectionOutgoing
	case inTo:
		return DirectionIncoming
	}
	return DirectionUnknown
}

// Participants returns the union of recipient and sender addresses
func (e *GmailEmail) Participants() ([]string, error) {
	to, err := e.ToEmails()
	if err != nil {
		return nil, err
	}
	from, err := e.FromEmail()
	if err != nil {
		return nil, err
	}
	for _, t := range to {
		if t == from {
			return to, nil
		}
	}
	return append(to, from), nil
}

// EventStatus is the status of a calendar event
type EventStatus string

const (
	EventConfirmed EventStatus = "confirmed"
	EventCancelled EventStatus = "cancelled"
	EventTentative EventStatus = "tentative"
)

const calendarEventKind = "calendar#event"

// ErrNotCalendarEvent is returned for payloads of another kind
var ErrNotCalendarEvent = errors.New("not a calendar event")

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

// Attendee is an invitee of an event
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	ResponseStatus string `json:"responseStatus"`
	Self           bool   `json:"self"`
}

type calendarEvent struct {
	Kind      string      `json:"kind"`
	ID        string      `json:"id"`
	Status    EventStatus `json:"status"`
	HTMLLink  string      `json:"htmlLink"`
	Summary   string      `json:"summary"`
	Start     eventTime   `json:"start"`
	End       eventTime   `json:"end"`
	Attendees []Attendee  `json:"attendees"`
}

// CalendarEvent gives typed access to a stored calendar event
type CalendarEvent struct {
	ev calendarEvent
}

// NewCalendarEvent parses raw event JSON; the kind must be calendar#event
func NewCalendarEvent(data []byte) (*CalendarEvent, error) {
	var ev calendarEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("invalid calendar event: %w", err)
	}
	if ev.Kind != calendarEventKind {
		return nil, fmt.Errorf("%w: kind %q", ErrNotCalendarEvent, ev.Kind)
	}
	return &CalendarEvent{ev: ev}, nil
}

// ID returns the Google event id
func (e *CalendarEvent) ID() string { return e.ev.ID }

// Status returns the event status
func (e *CalendarEvent) Status() EventStatus { return e.ev.Status }

// URL returns the link to the event in Google Calendar
func (e *CalendarEvent) URL() string { return e.ev.HTMLLink }

// Summary returns the event title
func (e *CalendarEvent) Summary() string { return e.ev.Summary }

// Attendees returns the invitees
func (e *CalendarEvent) Attendees() []Attendee { return e.ev.Attendees }

// Start returns when the event starts
func (e *CalendarEvent) Start() (time.Time, error) { return parseEventTime(e.ev.Start) }

// End returns when the event ends
func (e *CalendarEvent) End() (time.Time, error) { return parseEventTime(e.ev.End) }

// parseEventTime reads dateTime, or for all-day events date at midnight UTC
func parseEventTime(t eventTime) (time.Time, error) {
	if t.DateTime != "" {
		return time.Parse(time.RFC3339, t.DateTime)
	}
	return time.Parse("2006-01-02", t.Date)
}

// NeedsInteraction reports whether the event should be mirrored as an interaction
func (e *CalendarEvent) NeedsInteraction() bool {
	return e.ev.Status == EventConfirmed && len(e.ev.Attendees) > 0
}

// AttendeeEmails returns the distinct lower-cased attendee addresses
func (e *CalendarEvent) AttendeeEmails() []string {
	seen := make(map[string]bool, len(e.ev.Attendees))
	out := make([]string, 0, len(e.ev.Attendees))
	for _, a := range e.ev.Attendees {
		if a.Email == "" {
			continue
		}
		email := strings.ToLower(a.Email)
		if !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	return out
}
