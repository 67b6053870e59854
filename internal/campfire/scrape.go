package campfire

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// The lobby and transcript pages were built for browsers, not clients, so
// structure is recovered from markup shape and href tokens. A token that
// fails to match yields nothing rather than an error.
var (
	roomIDPattern         = regexp.MustCompile(`room/(\d+)`)
	transcriptDatePattern = regexp.MustCompile(`/transcript/(\d{4}/\d{2}/\d{2})`)
)

const transcriptDateLayout = "2006/01/02"

// firstMatch returns the first capturing group of pattern in s, or "" when
// the pattern does not match.
func firstMatch(pattern *regexp.Regexp, s string) string {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// parseDocument parses an HTML body for the scrape functions below.
func parseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

type roomListing struct {
	ID   int
	Name string
}

// scrapeRooms extracts the rooms linked from the lobby: every anchor under a
// level-2 heading whose href carries a numeric room id. Anchors without one
// (full rooms render without a link target) are skipped.
func scrapeRooms(doc *goquery.Document) []roomListing {
	var rooms []roomListing
	doc.Find("h2 a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := firstMatch(roomIDPattern, href)
		if id == "" {
			return
		}
		n, err := strconv.Atoi(id)
		if err != nil {
			return
		}
		rooms = append(rooms, roomListing{ID: n, Name: strings.TrimSpace(a.Text())})
	})
	return rooms
}

// scrapeUsers collects the occupant names listed inside each room container
// on the lobby page. When roomNames is non-empty, only containers whose
// heading matches one of the names contribute. Names are returned in page
// order, duplicates included; the caller owns presentation.
func scrapeUsers(doc *goquery.Document, roomNames []string) []string {
	var users []string
	doc.Find("div.room").Each(func(_ int, room *goquery.Selection) {
		if len(roomNames) > 0 {
			heading := strings.TrimSpace(room.Find("h2 a").First().Text())
			if !containsString(roomNames, heading) {
				return
			}
		}
		room.Find("li.user").Each(func(_ int, user *goquery.Selection) {
			if name := strings.TrimSpace(user.Text()); name != "" {
				users = append(users, name)
			}
		})
	})
	return users
}

// scrapeTranscripts builds the room-id → dates index from the transcript
// listing page. Both the room id and the date come out of each entry's first
// link; entries missing either token are skipped.
func scrapeTranscripts(doc *goquery.Document) map[string][]time.Time {
	transcripts := make(map[string][]time.Time)
	doc.Find(".transcript").Each(func(_ int, entry *goquery.Selection) {
		href, ok := entry.Find("a").First().Attr("href")
		if !ok {
			return
		}
		roomID := firstMatch(roomIDPattern, href)
		dateToken := firstMatch(transcriptDatePattern, href)
		if roomID == "" || dateToken == "" {
			return
		}
		date, err := time.Parse(transcriptDateLayout, dateToken)
		if err != nil {
			return
		}
		transcripts[roomID] = append(transcripts[roomID], date)
	})
	return transcripts
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
