// Package digest renders the update the bot pastes into the chat room: one
// section per member, newest journal entries first, headed by the member's
// current status.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jamesmacaulay/backfire/internal/backpack"
)

// Input is everything one render needs. Since is the checkpoint the bot is
// working from; HaveSince is false when it has never completed a cycle.
type Input struct {
	Entries   []backpack.JournalEntry
	Statuses  []backpack.Status
	Since     time.Time
	HaveSince bool
}

// Compose renders the digest and reports the newest updated-at timestamp it
// saw across every entry and status, which becomes the next checkpoint.
//
// A member gets a section when they have journal entries, or when their
// status changed at or after Since. On a first run (HaveSince false)
// status-only members are left out: with no baseline, every status would
// read as news.
func Compose(in Input) (string, time.Time) {
	type section struct {
		status    *backpack.Status
		hasStatus bool
		entries   []backpack.JournalEntry
	}

	sections := make(map[backpack.User]*section)
	var order []backpack.User

	grouped := func(user backpack.User) *section {
		if s, ok := sections[user]; ok {
			return s
		}
		s := &section{}
		sections[user] = s
		order = append(order, user)
		return s
	}

	for _, entry := range in.Entries {
		s := grouped(entry.User)
		s.entries = append(s.entries, entry)
	}
	for i := range in.Statuses {
		s := grouped(in.Statuses[i].User)
		if !s.hasStatus {
			s.status = &in.Statuses[i]
			s.hasStatus = true
		}
	}

	var latest time.Time
	var b strings.Builder

	for _, user := range order {
		s := sections[user]
		sort.SliceStable(s.entries, func(i, j int) bool {
			return s.entries[i].UpdatedAt.After(s.entries[j].UpdatedAt)
		})

		if s.hasStatus && s.status.UpdatedAt.After(latest) {
			latest = s.status.UpdatedAt
		}
		if len(s.entries) > 0 && s.entries[0].UpdatedAt.After(latest) {
			latest = s.entries[0].UpdatedAt
		}

		if len(s.entries) == 0 {
			statusIsNews := in.HaveSince && s.hasStatus && !s.status.UpdatedAt.Before(in.Since)
			if !statusIsNews {
				continue
			}
		}

		message := ""
		if s.hasStatus {
			message = s.status.Message
		}
		fmt.Fprintf(&b, "\n%s: %s\n", user.Name, message)
		for _, entry := range s.entries {
			fmt.Fprintf(&b, "  * %s\n", entry.Body)
		}
	}

	return b.String(), latest
}
