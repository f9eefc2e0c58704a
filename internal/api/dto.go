package api

import (
	"fmt"
	"time"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/quickadd"
)

// Write statuses.
const (
	StatusOK       = "ok"
	StatusConflict = "conflict"
	StatusMessage  = "message"
)

// ItemDTO is an item on the wire. Times are "HH:MM", dates "YYYY-MM-DD".
type ItemDTO struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Date       string   `json:"date"`
	Title      string   `json:"title"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Recurrence string   `json:"recurrence,omitempty"`
	DeletedAt  string   `json:"deleted_at,omitempty"`
	Conflicts  []string `json:"conflicts_with,omitempty"`
}

// ProposalRequest is the body of POST /proposals.
type ProposalRequest struct {
	TargetID   string `json:"target_id"`
	Kind       string `json:"kind" binding:"omitempty,oneof=event task"`
	Date       string `json:"date" binding:"required"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Title      string `json:"title"`
	Recurrence string `json:"recurrence"`
	Force      bool   `json:"force"`
}

// WriteResultDTO answers a proposal. Status is ok, conflict or message.
type WriteResultDTO struct {
	Status    string    `json:"status"`
	ID        string    `json:"id,omitempty"`
	Conflicts []ItemDTO `json:"conflicts,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// RescheduleRequest is the body of POST /items/:id/reschedule.
type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
}

// QuickAddRequest is the body of POST /quick-add/preview.
type QuickAddRequest struct {
	Text  string `json:"text" binding:"required"`
	Today string `json:"today"`
}

// QuickAddPreview is what a quick add would submit and what it would
// overlap on the target day.
type QuickAddPreview struct {
	Title     string    `json:"title"`
	Date      string    `json:"date,omitempty"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	Conflicts []ItemDTO `json:"conflicts,omitempty"`
}

// NewItemDTO converts an item for the wire.
func NewItemDTO(it item.Item) ItemDTO {
	dto := ItemDTO{
		ID:         it.ID,
		Kind:       string(it.Kind),
		Date:       dateutil.FormatDate(it.Date),
		Title:      it.Title,
		Recurrence: it.Recurrence,
	}
	if it.Span != nil {
		dto.Start = it.Span.StartClock()
		dto.End = it.Span.EndClock()
	}
	if it.DeletedAt != nil {
		dto.DeletedAt = it.DeletedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

// NewItemDTOs converts items and annotates each with the IDs it overlaps.
func NewItemDTOs(items []item.Item) []ItemDTO {
	index := item.ConflictIndex(items)
	out := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		dto := NewItemDTO(it)
		for _, c := range index[it.ID] {
			dto.Conflicts = append(dto.Conflicts, c.ID)
		}
		out = append(out, dto)
	}
	return out
}

// Item converts back to the domain type.
func (d ItemDTO) Item() (item.Item, error) {
	kind, err := item.ParseKind(d.Kind)
	if err != nil {
		return item.Item{}, err
	}
	date, err := dateutil.ParseDate(d.Date)
	if err != nil {
		return item.Item{}, err
	}
	it := item.Item{ID: d.ID, Kind: kind, Date: date, Title: d.Title, Recurrence: d.Recurrence}
	if d.Start != "" || d.End != "" {
		span, err := item.ParseSpan(d.Start, d.End)
		if err != nil {
			return item.Item{}, fmt.Errorf("item %s: %w", d.ID, err)
		}
		it.Span = &span
	}
	if d.DeletedAt != "" {
		ts, err := time.Parse(time.RFC3339, d.DeletedAt)
		if err != nil {
			return item.Item{}, fmt.Errorf("item %s deleted_at: %w", d.ID, err)
		}
		it.DeletedAt = &ts
	}
	return it, nil
}

func toItems(dtos []ItemDTO) ([]item.Item, error) {
	items := make([]item.Item, 0, len(dtos))
	for _, d := range dtos {
		it, err := d.Item()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// NewProposalRequest converts a proposal for the wire.
func NewProposalRequest(p item.Proposal) ProposalRequest {
	req := ProposalRequest{
		TargetID:   p.TargetID,
		Kind:       string(p.Kind),
		Date:       dateutil.FormatDate(p.Date),
		Title:      p.Title,
		Recurrence: p.Recurrence,
		Force:      p.Force,
	}
	if p.Span != nil {
		req.Start = p.Span.StartClock()
		req.End = p.Span.EndClock()
	}
	return req
}

// Proposal converts the request to the domain type. A task with a start
// but no end gets the default task length.
func (r ProposalRequest) Proposal(taskMinutes int) (item.Proposal, error) {
	date, err := dateutil.ParseDate(r.Date)
	if err != nil {
		return item.Proposal{}, err
	}
	kind := item.Kind(r.Kind)
	span, err := planner.ResolveSpan(kind, r.Start, r.End, taskMinutes)
	if err != nil {
		return item.Proposal{}, err
	}
	return item.Proposal{
		TargetID:   r.TargetID,
		Kind:       kind,
		Date:       date,
		Span:       span,
		Title:      r.Title,
		Recurrence: r.Recurrence,
		Force:      r.Force,
	}, nil
}

// NewWriteResultDTO converts a write result for the wire.
func NewWriteResultDTO(res item.WriteResult) WriteResultDTO {
	switch {
	case res.OK:
		return WriteResultDTO{Status: StatusOK, ID: res.ID}
	case res.Conflict:
		conflicts := make([]ItemDTO, 0, len(res.Conflicts))
		for _, c := range res.Conflicts {
			conflicts = append(conflicts, NewItemDTO(c))
		}
		return WriteResultDTO{Status: StatusConflict, Conflicts: conflicts}
	default:
		return WriteResultDTO{Status: StatusMessage, Message: res.Message}
	}
}

// WriteResult converts back to the domain type.
func (d WriteResultDTO) WriteResult() (item.WriteResult, error) {
	switch d.Status {
	case StatusOK:
		return item.Accepted(d.ID), nil
	case StatusConflict:
		conflicts, err := toItems(d.Conflicts)
		if err != nil {
			return item.WriteResult{}, err
		}
		return item.Rejected(conflicts), nil
	case StatusMessage:
		return item.Failed(d.Message), nil
	default:
		return item.WriteResult{}, fmt.Errorf("unknown write status %q", d.Status)
	}
}

// NewQuickAddPreview converts a preview for the wire.
func NewQuickAddPreview(pv planner.Preview) QuickAddPreview {
	p := QuickAddPreview{Title: pv.Title}
	if !pv.Date.IsZero() {
		p.Date = dateutil.FormatDate(pv.Date)
	}
	if pv.Span != nil {
		p.Start = pv.Span.StartClock()
		p.End = pv.Span.EndClock()
	}
	if len(pv.Conflicts) > 0 {
		p.Conflicts = NewItemDTOs(pv.Conflicts)
	}
	return p
}

// Preview converts back to the domain type.
func (p QuickAddPreview) Preview() (planner.Preview, error) {
	pv := planner.Preview{Entry: quickadd.Entry{Title: p.Title}}
	if p.Date != "" {
		d, err := dateutil.ParseDate(p.Date)
		if err != nil {
			return planner.Preview{}, err
		}
		pv.Date = d
	}
	if p.Start != "" {
		span, err := item.ParseSpan(p.Start, p.End)
		if err != nil {
			return planner.Preview{}, err
		}
		pv.Span = &span
	}
	if len(p.Conflicts) > 0 {
		conflicts, err := toItems(p.Conflicts)
		if err != nil {
			return planner.Preview{}, err
		}
		pv.Conflicts = conflicts
	}
	return pv, nil
}
