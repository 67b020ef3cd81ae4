package review

import "errors"

var (
	// ErrEventNotFound is returned when the event does not exist or belongs
	// to another user.
	ErrEventNotFound = errors.New("event not found")

	// ErrMissingUserID is returned when no caller identity was supplied.
	ErrMissingUserID = errors.New("user id is required")

	// ErrMissingEventID is returned when a request names no event.
	ErrMissingEventID = errors.New("event id is required")

	// ErrMissingHubID is returned when a ranking request names no hub.
	ErrMissingHubID = errors.New("hub id is required")
)

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingEventID) || errors.Is(err, ErrMissingHubID)
}
