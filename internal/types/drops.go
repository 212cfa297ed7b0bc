package types

import "sort"

// DropReason says why a record never reached the correlation stage.
type DropReason string

const (
	DropDuplicateNews      DropReason = "duplicate_news"
	DropDuplicatePrice     DropReason = "duplicate_price"
	DropScoringUnavailable DropReason = "scoring_unavailable"
	DropNoPredecessor      DropReason = "no_predecessor"
	DropNoPriceData        DropReason = "no_price_data"
)

// Drop records one excluded record.
type Drop struct {
	Reason   DropReason `json:"reason"`
	Ticker   string     `json:"ticker,omitempty"`
	Headline string     `json:"headline,omitempty"`
	Detail   string     `json:"detail,omitempty"`
}

// DropSummary counts drops by reason.
type DropSummary map[DropReason]int

// Summarize counts drops by reason.
func Summarize(drops ...[]Drop) DropSummary {
	s := DropSummary{}
	for _, batch := range drops {
		for _, d := range batch {
			s[d.Reason]++
		}
	}
	return s
}

// Total returns the number of drops across all reasons.
func (s DropSummary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Reasons returns the reasons present, sorted.
func (s DropSummary) Reasons() []DropReason {
	out := make([]DropReason, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
