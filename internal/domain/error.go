package domain

import "errors"

var (
	// Command errors
	ErrNotGroupChat = errors.New("command is only available in group chats")
	ErrFetchMembers = errors.New("failed to fetch group members")

	// Transport errors
	ErrPollConflict     = errors.New("another instance is polling with the same token")
	ErrPollInterrupted  = errors.New("polling stopped after a healthy run")
	ErrRetriesExhausted = errors.New("poll retries exhausted")
	ErrUnknownMode      = errors.New("unknown bot mode")
)
