package models

import "time"

// MenuRef identifies a catalog menu inside a mutation payload.
type MenuRef struct {
	PubID string `json:"pub_id"`
}

// PartnerByHandle tags a partner by handle (finish payload shape).
type PartnerByHandle struct {
	Handle string `json:"handle"`
}

// PartnerByID tags a partner by pub_id (edit payload shape).
type PartnerByID struct {
	PubID string `json:"pub_id"`
}

// EntryPayload is the wire shape of a strength entry in finish/edit bodies.
type EntryPayload struct {
	Menu MenuRef     `json:"menu"`
	Sets []SetRecord `json:"sets"`
}

// CardioEntryPayload is the wire shape of a cardio entry in finish/edit
// bodies. Duration and distance are omitted entirely when absent.
type CardioEntryPayload struct {
	Menu     MenuRef  `json:"menu"`
	Duration string   `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// StartRequest is the body of POST /users/{id}/status.
type StartRequest struct {
	StartedAt      time.Time `json:"started_at"`
	IsAutoDetected bool      `json:"is_auto_detected,omitempty"`
	GymPubID       string    `json:"gym_pub_id,omitempty"`
}

// FinishRequest is the body of POST /users/{id}/status/{sessionId}/finish.
// Entry, cardio and partner keys are omitted when empty.
type FinishRequest struct {
	FinishedAt  time.Time            `json:"finished_at"`
	Menus       []EntryPayload       `json:"menus,omitempty"`
	CardioMenus []CardioEntryPayload `json:"menus_cardio,omitempty"`
	Partners    []PartnerByHandle    `json:"partners,omitempty"`
}

// EditRequest is the body of PATCH /users/{id}/status/{sessionId}. It is a
// full replace: all three collections are always sent, and a nil GymPubID
// serializes as an explicit null that clears the gym.
type EditRequest struct {
	GymPubID    *string              `json:"gym_pub_id"`
	Menus       []EntryPayload       `json:"menus"`
	CardioMenus []CardioEntryPayload `json:"menus_cardio"`
	Partners    []PartnerByID        `json:"partners"`
}

// CreateMenuRequest is the body of POST /users/{id}/menus[_cardio].
// Bodypart is only meaningful for the strength catalog.
type CreateMenuRequest struct {
	Name     string   `json:"name"`
	Bodypart *MenuRef `json:"bodypart,omitempty"`
}

// RenameMenuRequest is the body of PATCH /users/{id}/menus[_cardio]/{menuId}.
type RenameMenuRequest struct {
	Name string `json:"name"`
}

// PruneSets drops placeholder sets (neither weight nor reps). The input
// slice is never mutated; the result is always a fresh non-nil slice so a
// fully-placeholder entry serializes as an empty array rather than null.
func PruneSets(sets []SetRecord) []SetRecord {
	pruned := make([]SetRecord, 0, len(sets))
	for _, s := range sets {
		if !s.IsPlaceholder() {
			pruned = append(pruned, s)
		}
	}
	return pruned
}

// EntryPayloads converts hydrated strength entries to their wire shape,
// pruning placeholder sets from each entry.
func EntryPayloads(entries []StrengthEntry) []EntryPayload {
	payloads := make([]EntryPayload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, EntryPayload{
			Menu: MenuRef{PubID: e.Menu.PubID},
			Sets: PruneSets(e.Sets),
		})
	}
	return payloads
}

// CardioEntryPayloads converts hydrated cardio entries to their wire shape.
func CardioEntryPayloads(entries []CardioEntry) []CardioEntryPayload {
	payloads := make([]CardioEntryPayload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, CardioEntryPayload{
			Menu:     MenuRef{PubID: e.Menu.PubID},
			Duration: e.Duration,
			Distance: e.Distance,
		})
	}
	return payloads
}

// PartnersByHandle converts tagged partners to the finish payload shape.
func PartnersByHandle(partners []Partner) []PartnerByHandle {
	out := make([]PartnerByHandle, 0, len(partners))
	for _, p := range partners {
		out = append(out, PartnerByHandle{Handle: p.Handle})
	}
	return out
}

// PartnersByID converts tagged partners to the edit payload shape.
func PartnersByID(partners []Partner) []PartnerByID {
	out := make([]PartnerByID, 0, len(partners))
	for _, p := range partners {
		out = append(out, PartnerByID{PubID: p.PubID})
	}
	return out
}
