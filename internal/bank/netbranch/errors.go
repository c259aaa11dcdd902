package netbranch

import "errors"

var (
	// ErrAuthentication covers an unreachable login page, a failed
	// credential submission, or a post-login page that is not the welcome
	// state.
	ErrAuthentication = errors.New("netbranch: authentication failed")

	// ErrNavigation covers a missing link, form or button anywhere in the
	// scripted navigation, logout included.
	ErrNavigation = errors.New("netbranch: navigation failed")

	// ErrInvalidArgument covers missing required inputs, such as absent
	// history date bounds.
	ErrInvalidArgument = errors.New("netbranch: invalid argument")
)
