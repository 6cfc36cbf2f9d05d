package domain

// Viewer identifies one audience member. Authenticated viewers carry
// their user ID; anonymous viewers get a generated session ID.
type Viewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Anonymous   bool   `json:"anonymous"`
}

// UserID returns the account ID for authenticated viewers and the
// empty string for anonymous ones, matching the nullable author
// fields on messages and questions.
func (v Viewer) UserID() string {
	if v.Anonymous {
		return ""
	}
	return v.ID
}

// PresenceCount reports who is currently in a stream. Totals are
// always the cardinality of the presence set at read time.
type PresenceCount struct {
	Authenticated int `json:"authenticated"`
	Anonymous     int `json:"anonymous"`
	Total         int `json:"total"`
}
