package models

// User represents a person who takes part in group expenses.
//
// The ID is permanent once the user is referenced by an expense split;
// Name and Email may be edited.
type User struct {
	// ID is the unique numeric identifier assigned by the store.
	ID int64

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique).
	Email string

	// CreatedAt is the Unix timestamp when the user was created.
	CreatedAt int64
}
