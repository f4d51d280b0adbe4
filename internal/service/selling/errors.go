package selling

import "errors"

var (
	ErrTicketNotFound = errors.New("selling record not found")
	ErrPortalNotFound = errors.New("portal does not exist")
)
