package digest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jamesmacaulay/backfire/internal/backpack"
	"github.com/jamesmacaulay/backfire/internal/digest"
)

var (
	alice = backpack.User{ID: 5, Name: "Alice"}
	bob   = backpack.User{ID: 7, Name: "Bob"}
	carol = backpack.User{ID: 9, Name: "Carol"}
)

func at(hour int) time.Time {
	return time.Date(2009, 5, 14, hour, 0, 0, 0, time.UTC)
}

func entry(user backpack.User, body string, updated time.Time) backpack.JournalEntry {
	return backpack.JournalEntry{User: user, Body: body, UpdatedAt: updated}
}

func status(user backpack.User, message string, updated time.Time) backpack.Status {
	return backpack.Status{User: user, Message: message, UpdatedAt: updated}
}

func TestComposeGroupsByUser(t *testing.T) {
	text, latest := digest.Compose(digest.Input{
		Entries: []backpack.JournalEntry{
			entry(alice, "older entry", at(9)),
			entry(bob, "bob's entry", at(10)),
			entry(alice, "newer entry", at(11)),
		},
		Statuses:  []backpack.Status{status(alice, "shipping", at(12))},
		Since:     at(8),
		HaveSince: true,
	})

	expected := "\nAlice: shipping\n" +
		"  * newer entry\n" +
		"  * older entry\n" +
		"\nBob: \n" +
		"  * bob's entry\n"
	assert.Equal(t, expected, text)
	assert.Equal(t, at(12), latest)
}

func TestComposeStatusOnlyUsers(t *testing.T) {
	t.Run("fresh status is included", func(t *testing.T) {
		text, latest := digest.Compose(digest.Input{
			Statuses:  []backpack.Status{status(carol, "back from vacation", at(10))},
			Since:     at(9),
			HaveSince: true,
		})
		assert.Equal(t, "\nCarol: back from vacation\n", text)
		assert.Equal(t, at(10), latest)
	})

	t.Run("stale status is dropped", func(t *testing.T) {
		text, latest := digest.Compose(digest.Input{
			Statuses:  []backpack.Status{status(carol, "old news", at(7))},
			Since:     at(9),
			HaveSince: true,
		})
		assert.Empty(t, text)
		// The timestamp is still observed for checkpoint purposes.
		assert.Equal(t, at(7), latest)
	})

	t.Run("first run has no baseline, statuses alone are not news", func(t *testing.T) {
		text, _ := digest.Compose(digest.Input{
			Statuses: []backpack.Status{status(carol, "anything", at(10))},
		})
		assert.Empty(t, text)
	})
}

func TestComposeLatestAcrossAllUsers(t *testing.T) {
	_, latest := digest.Compose(digest.Input{
		Entries: []backpack.JournalEntry{entry(bob, "entry", at(10))},
		Statuses: []backpack.Status{
			status(carol, "stale, excluded from output", at(15)),
			status(alice, "also stale", at(11)),
		},
		Since:     at(16),
		HaveSince: true,
	})
	// Excluded sections still advance the high-water mark.
	assert.Equal(t, at(15), latest)
}

func TestComposeEmptyInput(t *testing.T) {
	text, latest := digest.Compose(digest.Input{Since: at(9), HaveSince: true})
	assert.Empty(t, text)
	assert.True(t, latest.IsZero())
}

func TestComposeFirstStatusWins(t *testing.T) {
	text, _ := digest.Compose(digest.Input{
		Statuses: []backpack.Status{
			status(alice, "first", at(10)),
			status(alice, "second", at(11)),
		},
		Since:     at(9),
		HaveSince: true,
	})
	assert.Equal(t, "\nAlice: first\n", text)
}
