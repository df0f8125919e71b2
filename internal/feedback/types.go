package feedback

import (
	"fmt"
	"strings"
	"time"
)

// StorageKey is the persisted key of the ledger. Existing installs depend on it.
const StorageKey = "@outfit_feedback"

// Kind is the polarity of a feedback record.
type Kind string

const (
	Like    Kind = "like"
	Dislike Kind = "dislike"
)

// Reason optionally explains a dislike. The zero value means no reason was given.
type Reason string

const (
	ReasonFit     Reason = "fit"
	ReasonColor   Reason = "color"
	ReasonWeather Reason = "weather"
	ReasonVibe    Reason = "vibe"
)

// Reasons lists the accepted reasons in display order.
var Reasons = []Reason{ReasonFit, ReasonColor, ReasonWeather, ReasonVibe}

// Record is one like or dislike attached to a subject (an outfit id).
type Record struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subjectId"`
	Kind      Kind      `json:"kind"`
	Reason    Reason    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats aggregates the ledger. ReasonCounts only counts dislikes.
type Stats struct {
	Total        int            `json:"total"`
	LikeCount    int            `json:"likeCount"`
	DislikeCount int            `json:"dislikeCount"`
	ReasonCounts map[Reason]int `json:"reasonCounts"`
	LikeRate     int            `json:"likeRate"`
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Like, Dislike:
		return k, nil
	default:
		return "", fmt.Errorf("unknown feedback kind %q", s)
	}
}

// ParseReason accepts an empty string as "no reason".
func ParseReason(s string) (Reason, error) {
	r := Reason(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return "", nil
	}
	for _, known := range Reasons {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown feedback reason %q", s)
}
