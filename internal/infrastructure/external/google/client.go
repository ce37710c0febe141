package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	currentUser     = "me"
	primaryCalendar = "primary"
	metadataFormat  = "metadata"
)

// Client reads Gmail and Google Calendar for one user
type Client struct {
	gmail    *gmail.Service
	calendar *calendar.Service
}

type clientOptions struct {
	httpClient       *http.Client
	gmailEndpoint    string
	calendarEndpoint string
}

// Option customises a Client
type Option func(*clientOptions)

// WithEndpoints points the client at other API roots, used by tests
func WithEndpoints(gmailURL, calendarURL string) Option {
	return func(o *clientOptions) {
		o.gmailEndpoint = gmailURL
		o.calendarEndpoint = calendarURL
	}
}

// WithHTTPClient sends requests through c instead of an oauth2 transport
// built from the token source
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewClient creates a Google API client authorised by src
func NewClient(ctx context.Context, src oauth2.TokenSource, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	gmailSvc, err := gmail.NewService(ctx, o.serviceOptions(src, o.gmailEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	calendarSvc, err := calendar.NewService(ctx, o.serviceOptions(src, o.calendarEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{gmail: gmailSvc, calendar: calendarSvc}, nil
}

func (o *clientOptions) serviceOptions(src oauth2.TokenSource, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{option.WithTokenSource(src)}
	if o.httpClient != nil {
		opts = []option.ClientOption{option.WithHTTPClient(o.httpClient)}
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

// MessageRef is an entry of a Gmail message list
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// MessageList is one page of Gmail messages
type MessageList struct {
	Messages      []MessageRef `json:"messages"`
	NextPageToken string       `json:"nextPageToken"`
}

// ListMessages returns one page of the user's messages
func (c *Client) ListMessages(ctx context.Context, pageToken string, maxResults int) (*MessageList, error) {
	call := c.gmail.Users.Messages.List(currentUser).MaxResults(int64(maxResults)).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list gmail messages: %w", err)
	}

	out := &MessageList{
		Messages:      make([]MessageRef, 0, len(resp.Messages)),
		NextPageToken: resp.NextPageToken,
	}
	for _, m := range resp.Messages {
		out.Messages = append(out.Messages, MessageRef{ID: m.Id, ThreadID: m.ThreadId})
	}
	return out, nil
}

// GetMessageMetadata fetches headers and snippet of a message as raw JSON
func (c *Client) GetMessageMetadata(ctx context.Context, id string) (json.RawMessage, error) {
	msg, err := c.gmail.Users.Messages.Get(currentUser, id).Format(metadataFormat).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get gmail message %s: %w", id, err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gmail message %s: %w", id, err)
	}
	return raw, nil
}

// EventList is one page of calendar events, items kept raw for storage
type EventList struct {
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

// ListEvents returns one page of events of the primary calendar
func (c *Client) ListEvents(ctx context.Context, pageToken string, maxResults int) (*EventList, error) {
	call := c.calendar.Events.List(primaryCalendar).MaxResults(int64(maxResults)).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	out := &EventList{
		Items:         make([]json.RawMessage, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, ev := range resp.Items {
		raw, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to encode calendar event %s: %w", ev.Id, err)
		}
		out.Items = append(out.Items, raw)
	}
	return out, nil
}
