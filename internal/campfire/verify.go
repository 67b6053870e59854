package campfire

import (
	"fmt"
	"net/http"
)

type expectationKind int

const (
	expectSuccess expectationKind = iota + 1
	expectRedirect
	expectRedirectTo
)

// Expectation is the closed set of response classifications the session
// cares about. Construct one with ExpectSuccess, ExpectRedirect or
// ExpectRedirectTo; the zero value is invalid.
type Expectation struct {
	kind     expectationKind
	location string
}

var (
	// ExpectSuccess matches a plain 200.
	ExpectSuccess = Expectation{kind: expectSuccess}

	// ExpectRedirect matches any 3xx, regardless of destination.
	ExpectRedirect = Expectation{kind: expectRedirect}
)

// ExpectRedirectTo matches a 3xx whose Location header equals the given URL
// exactly.
func ExpectRedirectTo(location string) Expectation {
	return Expectation{kind: expectRedirectTo, location: location}
}

// Verify classifies a response against an expectation. A mismatch is an
// ordinary false, never an error: callers decide what a failed check means.
// Passing the zero Expectation is a programmer error and panics.
func Verify(resp *http.Response, exp Expectation) bool {
	switch exp.kind {
	case expectSuccess:
		return resp.StatusCode == http.StatusOK
	case expectRedirect:
		return resp.StatusCode >= 300 && resp.StatusCode <= 399
	case expectRedirectTo:
		return Verify(resp, ExpectRedirect) && resp.Header.Get("Location") == exp.location
	default:
		panic(fmt.Sprintf("campfire: unknown expectation kind %d", exp.kind))
	}
}
