package models

// Participant is one identity's membership in one event. (UserID, EventID)
// is unique at the storage layer.
type Participant struct {
	ID      int64  `json:"id"`
	EventID string `json:"event"`
	UserID  int64  `json:"user"`
	User    User   `json:"-"`
}
