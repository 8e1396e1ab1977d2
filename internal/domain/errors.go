package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyRunning      = errors.New("monitor already running")
	ErrNotRunning          = errors.New("monitor not running")
	ErrInsufficientVenues  = errors.New("fewer than two venues available")
	ErrVenueUnavailable    = errors.New("venue unavailable")
	ErrUnknownVenue        = errors.New("unknown venue")
	ErrInvalidTradeParams  = errors.New("invalid trade parameters")
	ErrFeedNotConnected    = errors.New("price feed not connected")
)
