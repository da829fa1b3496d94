package models

import "time"

// Account represents a registered author or reader.
type Account struct {
	ID           string    `json:"id" bson:"_id"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	Bio          string    `json:"bio" bson:"bio"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`

	// Posts authored by this account, newest first. Only populated on reads.
	Posts []Post `json:"posts" bson:"-"`
}

// Snapshot copies the account's displayable fields as they are at the given time.
func (a Account) Snapshot(at time.Time) AuthorSnapshot {
	return AuthorSnapshot{
		ID:         a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Bio:        a.Bio,
		SnapshotAt: at,
	}
}

// AuthorSnapshot is a point-in-time copy of an account's display fields.
// It is history, not a live view: later profile changes are not reflected.
type AuthorSnapshot struct {
	ID         string    `json:"id" bson:"id"`
	FirstName  string    `json:"firstName" bson:"firstName"`
	LastName   string    `json:"lastName" bson:"lastName"`
	Bio        string    `json:"bio" bson:"bio"`
	SnapshotAt time.Time `json:"snapshotAt" bson:"snapshotAt"`
}
