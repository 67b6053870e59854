package campfire

import "errors"

var (
	// ErrAuthenticationFailed means the login POST was not answered with a
	// redirect back to the account root, i.e. the credentials were rejected.
	ErrAuthenticationFailed = errors.New("campfire: login failed")

	// ErrSSLRequired means the credentials were accepted but the follow-up
	// page fetch failed. Accounts that mandate SSL accept the login and then
	// bounce non-SSL sessions to an error page, so this is a policy mismatch,
	// not a bad password.
	ErrSSLRequired = errors.New("campfire: account requires SSL")
)
