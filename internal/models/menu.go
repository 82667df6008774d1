package models

// Bodypart is a body-part grouping for strength menus.
type Bodypart struct {
	PubID string `json:"pub_id"`
	Name  string `json:"name"`
}

// MenuDefinition is a reusable strength exercise menu. A nil Bodypart means
// the menu belongs to no body-part grouping; that is distinct from the menu
// being a cardio menu, which lives in its own catalog.
type MenuDefinition struct {
	PubID    string    `json:"pub_id"`
	Name     string    `json:"name"`
	Bodypart *Bodypart `json:"bodypart,omitempty"`
}

// CardioMenuDefinition is a reusable cardio exercise menu.
type CardioMenuDefinition struct {
	PubID string `json:"pub_id"`
	Name  string `json:"name"`
}
