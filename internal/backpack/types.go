package backpack

import "time"

// User identifies a Backpack account member. Users compare by value: two
// entries by the same person carry equal Users.
type User struct {
	ID   int
	Name string
}

// JournalEntry is one journal post.
type JournalEntry struct {
	ID        int
	User      User
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status is a member's current one-line status. Each member has at most one.
type Status struct {
	ID        int
	User      User
	Message   string
	UpdatedAt time.Time
}
