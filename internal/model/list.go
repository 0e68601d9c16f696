package model

import (
	"slices"
	"time"
)

// Visibility controls who may read a list.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid checks if the visibility is a known value.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// List is a named, ordered collection of external movie identifiers.
type List struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	Movies     []string   `json:"movies"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsPublic returns true if anyone may read the list.
func (l *List) IsPublic() bool {
	return l.Visibility == VisibilityPublic
}

// IsOwnedBy returns true if userID owns the list.
func (l *List) IsOwnedBy(userID string) bool {
	return userID != "" && l.OwnerID == userID
}

// VisibleTo reports whether viewerID may read the list.
// An empty viewerID is an anonymous caller.
func (l *List) VisibleTo(viewerID string) bool {
	return l.IsPublic() || l.IsOwnedBy(viewerID)
}

// HasMovie returns true if movieID is already in the list.
func (l *List) HasMovie(movieID string) bool {
	return slices.Contains(l.Movies, movieID)
}

// DedupeMovieIDs drops repeated identifiers, keeping first-seen order.
func DedupeMovieIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
