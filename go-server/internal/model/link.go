package model

import "time"

// Link is a shortened URL owned by the user who created it.
type Link struct {
	Code      string    `json:"short_code" db:"code"`
	TargetURL string    `json:"url" db:"target_url"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Visits    []Visit   `json:"visits,omitempty" db:"-"`
}

// IsOwnedBy reports whether userID created the link. Anonymous callers own nothing.
func (l *Link) IsOwnedBy(userID string) bool {
	return userID != "" && l.OwnerID == userID
}

// Visit is one redirect traversal. An empty VisitorID means the visitor was anonymous.
type Visit struct {
	VisitorID string    `json:"visitor_id,omitempty" db:"visitor_id"`
	Timestamp time.Time `json:"timestamp" db:"visited_at"`
}
