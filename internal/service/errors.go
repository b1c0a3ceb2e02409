package service

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrPostNotPublishable = errors.New("post is not in a publishable state")
)

// PlatformAPIError is an explicit error payload returned by the Graph API, as
// opposed to a transport failure.
type PlatformAPIError struct {
	Platform string
	Code     int
	Message  string
}

func (e *PlatformAPIError) Error() string {
	return fmt.Sprintf("%s api error (code %d): %s", e.Platform, e.Code, e.Message)
}
