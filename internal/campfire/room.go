package campfire

import (
	"context"
	"fmt"
	"net/http"
)

// Room is a lightweight handle on a chat room: an id, a display name and the
// session that produced it. Handles are re-derived from scraping on every
// lookup and carry no other state; two handles are the same room when their
// id and name match.
type Room struct {
	ID   int
	Name string

	session *Session
}

// Speak posts a single message to the room.
func (r *Room) Speak(ctx context.Context, message string) error {
	return r.send(ctx, message, false)
}

// Paste posts a block of pasted content to the room. The endpoint is the
// same as Speak; the paste flag changes how the server delimits multi-line
// content.
func (r *Room) Paste(ctx context.Context, message string) error {
	return r.send(ctx, message, true)
}

func (r *Room) send(ctx context.Context, message string, paste bool) error {
	params := Params{"message": String(message)}
	if paste {
		params["paste"] = String("true")
	}

	resp, _, err := r.session.perform(ctx, requestSpec{
		method: http.MethodPost,
		path:   fmt.Sprintf("room/%d/speak", r.ID),
		params: params,
		ajax:   true,
	})
	if err != nil {
		return err
	}
	if !Verify(resp, ExpectSuccess) {
		return fmt.Errorf("campfire: posting to room %d: status %d", r.ID, resp.StatusCode)
	}
	return nil
}
