package portal

import "errors"

var (
	ErrPortalNotFound = errors.New("portal not found")
	ErrPortalInUse    = errors.New("portal still has selling records")
	ErrEmptyName      = errors.New("portal name cannot be empty")
)
