package model

import (
	"strings"
	"time"
)

// OpportunityType categorizes what kind of extracurricular an opportunity is.
type OpportunityType string

const (
	TypeInternship  OpportunityType = "internship"
	TypeCompetition OpportunityType = "competition"
	TypeScholarship OpportunityType = "scholarship"
	TypeProgram     OpportunityType = "program"
	TypeResearch    OpportunityType = "research"
	TypeVolunteer   OpportunityType = "volunteer"
	TypeFellowship  OpportunityType = "fellowship"
	TypeOther       OpportunityType = "other"
)

// ParseOpportunityType maps a raw extraction value onto an OpportunityType,
// defaulting to other for anything unrecognized.
func ParseOpportunityType(s string) OpportunityType {
	switch OpportunityType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeInternship:
		return TypeInternship
	case TypeCompetition:
		return TypeCompetition
	case TypeScholarship:
		return TypeScholarship
	case TypeProgram:
		return TypeProgram
	case TypeResearch:
		return TypeResearch
	case TypeVolunteer:
		return TypeVolunteer
	case TypeFellowship:
		return TypeFellowship
	default:
		return TypeOther
	}
}

// TimingType classifies how an opportunity recurs, which governs expiry
// handling and the recheck cadence.
type TimingType string

const (
	TimingOneTime   TimingType = "one_time"
	TimingAnnual    TimingType = "annual"
	TimingRecurring TimingType = "recurring"
	TimingSeasonal  TimingType = "seasonal"
)

// Recurring reports whether the timing type describes an opportunity that
// comes back in a future cycle.
func (t TimingType) Recurring() bool {
	switch t {
	case TimingAnnual, TimingRecurring, TimingSeasonal:
		return true
	default:
		return false
	}
}

// ParseTimingType maps a raw extraction value onto a TimingType, defaulting
// to one-time for anything unrecognized.
func ParseTimingType(s string) TimingType {
	switch TimingType(strings.ToLower(strings.TrimSpace(s))) {
	case TimingAnnual:
		return TimingAnnual
	case TimingRecurring:
		return TimingRecurring
	case TimingSeasonal:
		return TimingSeasonal
	default:
		return TimingOneTime
	}
}

// OpportunityRecord is the durable entity produced by the discovery
// pipeline: one extracurricular opportunity a student could apply to.
// The persistence key is SourceURL; Organization+Title is the fallback
// dedup key owned by the store.
type OpportunityRecord struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Organization string          `json:"organization"`
	Type         OpportunityType `json:"type"`
	Location     string          `json:"location"`
	Description  string          `json:"description,omitempty"`
	SourceURL    string          `json:"source_url"`
	Deadline     string          `json:"deadline,omitempty"`
	GradeLevels  []string        `json:"grade_levels,omitempty"`
	Cost         string          `json:"cost,omitempty"`
	IsExpired    bool            `json:"is_expired"`
	TimingType   TimingType      `json:"timing_type"`
	RecheckDays  int             `json:"recheck_days"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// EmbeddingText builds the text representation of a record used for
// vector indexing. Field order is stable so identical records embed
// identically.
func (r *OpportunityRecord) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(r.Title)
	if r.Organization != "" {
		b.WriteString(" by ")
		b.WriteString(r.Organization)
	}
	if r.Type != "" {
		b.WriteString(". Type: ")
		b.WriteString(string(r.Type))
	}
	if r.Location != "" {
		b.WriteString(". Location: ")
		b.WriteString(r.Location)
	}
	if r.Deadline != "" {
		b.WriteString(". Deadline: ")
		b.WriteString(r.Deadline)
	}
	if r.Description != "" {
		b.WriteString(". ")
		desc := r.Description
		if len(desc) > 1000 {
			desc = desc[:1000]
		}
		b.WriteString(desc)
	}
	return b.String()
}

// Card is the display-safe projection carried by "extracted" events.
type Card struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Type         string `json:"type"`
	Location     string `json:"location"`
}

// Card returns the display projection of the record.
func (r *OpportunityRecord) Card() Card {
	return Card{
		Title:        r.Title,
		Organization: r.Organization,
		Type:         string(r.Type),
		Location:     r.Location,
	}
}
