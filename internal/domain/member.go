package domain

// Member is one slot in a voice room roster: connection id plus the
// display name shown in member lists. Rosters are replace-on-update,
// so this is all a consumer needs to rebuild its UI state.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
