package presenter

import (
	"sort"
	"strconv"
	"time"

	analysisDTO "github.com/johnquangdev/networking/internal/adapter/dto/analysis"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

const (
	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006, 3:04 PM"
)

// ContactLink is a contact rendered as a link to its detail page
type ContactLink struct {
	ID   string
	Name string
	URL  string
}

// ActionItem is one checkbox of the action item checklist
type ActionItem struct {
	ID   string
	Text string
}

// KeyValue is a row of the personal information table
type KeyValue struct {
	Key   string
	Value string
}

// AnalysisView is the analysis section of the interaction page
type AnalysisView struct {
	Sentiment      SentimentView
	KeyInsights    []string
	ActionItems    []ActionItem
	FollowUpNeeded bool
	FollowUpDate   string
	Topics         []string
	Context        string
	PersonalInfo   []KeyValue
	Version        string
}

// InteractionView is the interaction detail page
type InteractionView struct {
	ID          string
	Title       string
	Description string
	WasAt       string
	Type        string
	Contacts    []ContactLink
	Analysis    *AnalysisView
}

// InteractionRow is a line of the interaction list
type InteractionRow struct {
	ID       string
	URL      string
	Title    string
	WasAt    string
	Contacts []ContactLink
	Analysed bool
}

// ContactURL reverses the contact detail route
func ContactURL(id string) string { return "/contacts/" + id }

// InteractionURL reverses the interaction detail route
func InteractionURL(id string) string { return "/interactions/" + id }

func toContactLinks(contacts []*entities.Contact) []ContactLink {
	links := make([]ContactLink, 0, len(contacts))
	for _, c := range contacts {
		id := c.ID.String()
		links = append(links, ContactLink{ID: id, Name: c.Name, URL: ContactURL(id)})
	}
	return links
}

// ToInteractionView builds the detail page model in loc
func ToInteractionView(i *entities.Interaction, loc *time.Location) *InteractionView {
	v := &InteractionView{
		ID:          i.ID.String(),
		Title:       i.Title,
		Description: i.Description,
		WasAt:       i.WasAt.In(loc).Format(DateTimeLayout),
		Contacts:    toContactLinks(i.Contacts),
	}
	if i.Type != nil {
		v.Type = i.Type.Name
	}
	if i.Analysis != nil {
		v.Analysis = ToAnalysisView(i.Analysis, loc)
	}
	return v
}

// ToAnalysisView builds the analysis section
func ToAnalysisView(a *entities.InteractionAnalysis, loc *time.Location) *AnalysisView {
	v := &AnalysisView{
		Sentiment:      ToSentimentView(a.SentimentScore),
		KeyInsights:    a.KeyInsights,
		FollowUpNeeded: a.FollowUpNeeded,
		Topics:         a.TopicsDiscussed,
		Context:        a.Context(),
		Version:        a.AnalysisVersion,
	}
	for n, item := range a.ActionItems {
		v.ActionItems = append(v.ActionItems, ActionItem{ID: "action-" + strconv.Itoa(n+1), Text: item})
	}
	if a.SuggestedFollowUpDate != nil {
		v.FollowUpDate = a.SuggestedFollowUpDate.In(loc).Format(DateLayout)
	}

	info := a.PersonalInfo()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.PersonalInfo = append(v.PersonalInfo, KeyValue{Key: k, Value: info[k]})
	}
	return v
}

// ToInteractionRows builds the interaction list
func ToInteractionRows(interactions []*entities.Interaction, loc *time.Location) []InteractionRow {
	rows := make([]InteractionRow, 0, len(interactions))
	for _, i := range interactions {
		id := i.ID.String()
		rows = append(rows, InteractionRow{
			ID:       id,
			URL:      InteractionURL(id),
			Title:    i.Title,
			WasAt:    i.WasAt.In(loc).Format(DateTimeLayout),
			Contacts: toContactLinks(i.Contacts),
			Analysed: i.HasAnalysis(),
		})
	}
	return rows
}

// ToAnalysisResponse converts an analysis to the API DTO
func ToAnalysisResponse(a *entities.InteractionAnalysis) *analysisDTO.AnalysisResponse {
	if a == nil {
		return nil
	}
	s := entities.NewSentiment(a.SentimentScore)
	return &analysisDTO.AnalysisResponse{
		InteractionID: a.InteractionID.String(),
		Sentiment: analysisDTO.SentimentResponse{
			Score:          a.SentimentScore,
			Percentage:     s.Percentage,
			Category:       string(s.Category),
			Label:          s.Label,
			NeedsAttention: s.NeedsAttention(),
		},
		KeyInsights:           nonNil(a.KeyInsights),
		ActionItems:           nonNil(a.ActionItems),
		TopicsDiscussed:       nonNil(a.TopicsDiscussed),
		FollowUpNeeded:        a.FollowUpNeeded,
		SuggestedFollowUpDate: a.SuggestedFollowUpDate,
		ConversationContext:   a.Context(),
		PersonalInfoMentioned: a.PersonalInfo(),
		AnalysisVersion:       a.AnalysisVersion,
		CreatedAt:             a.CreatedAt,
	}
}

// ToJobResponse converts an analysis job to the API DTO
func ToJobResponse(j *entities.AnalysisJob) *analysisDTO.JobResponse {
	if j == nil {
		return nil
	}
	r := &analysisDTO.JobResponse{
		ID:        j.ID.String(),
		Status:    string(j.Status),
		Attempts:  j.Attempts,
		StartedAt: j.StartedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.LastError != nil {
		r.LastError = *j.LastError
	}
	return r
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
