package models

import (
	"fmt"
	"time"
)

// SessionSummary is the shallow shape returned by the session list endpoint.
// Detail (entries, partners) is fetched per-id to bound payload size.
type SessionSummary struct {
	PubID          string     `json:"pub_id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	IsAutoDetected bool       `json:"is_auto_detected,omitempty"`
	GymPubID       string     `json:"gym_pub_id,omitempty"`
}

// Active reports whether the session has not been finished yet.
func (s SessionSummary) Active() bool {
	return s.FinishedAt == nil
}

// TrainingSession is a fully hydrated session record.
type TrainingSession struct {
	PubID          string          `json:"pub_id"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	IsAutoDetected bool            `json:"is_auto_detected,omitempty"`
	Gym            *Gym            `json:"gym,omitempty"`
	Partners       []Partner       `json:"partners"`
	Menus          []StrengthEntry `json:"menus"`
	CardioMenus    []CardioEntry   `json:"menus_cardio"`
}

// Active reports whether the session has not been finished yet.
func (s *TrainingSession) Active() bool {
	return s.FinishedAt == nil
}

// Duration returns the elapsed time of a finished session.
// The second return is false while the session is still active.
func (s *TrainingSession) Duration() (time.Duration, bool) {
	if s.FinishedAt == nil {
		return 0, false
	}
	return s.FinishedAt.Sub(s.StartedAt), true
}

// FormatDuration renders a duration as "1h23m" or "45m".
func FormatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes >= 60 {
		return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Gym is an external entity consumed by this subsystem, never owned.
type Gym struct {
	PubID     string  `json:"pub_id"`
	Name      string  `json:"name"`
	ChainName *string `json:"chain_name,omitempty"`
}

// DisplayName returns "chain - name" when the gym belongs to a chain.
func (g Gym) DisplayName() string {
	if g.ChainName != nil && *g.ChainName != "" {
		return *g.ChainName + " - " + g.Name
	}
	return g.Name
}

// Partner is a denormalized snapshot of a tagged user, captured at tagging
// time. Only the pub_id is used as a live reference.
type Partner struct {
	PubID       string `json:"pub_id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
}

// SetRecord is one weight/reps measurement within a strength entry.
// Both fields are optional; a record with neither is a UI placeholder and
// must never reach persistence.
type SetRecord struct {
	Weight *float64 `json:"weight,omitempty"`
	Reps   *int     `json:"reps,omitempty"`
}

// IsPlaceholder reports whether neither weight nor reps is present.
func (r SetRecord) IsPlaceholder() bool {
	return r.Weight == nil && r.Reps == nil
}

// StrengthEntry ties a strength menu to its per-session sets.
type StrengthEntry struct {
	Menu MenuDefinition `json:"menu"`
	Sets []SetRecord    `json:"sets,omitempty"`
}

// CardioEntry ties a cardio menu to its optional per-session measurements.
// Duration is free text (typically minutes); Distance is kilometers.
type CardioEntry struct {
	Menu     CardioMenuDefinition `json:"menu"`
	Duration string               `json:"duration,omitempty"`
	Distance *float64             `json:"distance,omitempty"`
}

// Float and Int return pointers for optional numeric fields.
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }

// String returns a pointer for optional string fields.
func String(v string) *string { return &v }
