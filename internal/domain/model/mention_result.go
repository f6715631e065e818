package model

// MentionOutcome classifies the result of collecting mentions for a chat.
type MentionOutcome int

const (
	MentionSuccess MentionOutcome = iota
	MentionUsageError
	MentionFetchError
)

func (o MentionOutcome) String() string {
	switch o {
	case MentionSuccess:
		return "success"
	case MentionUsageError:
		return "usage_error"
	case MentionFetchError:
		return "fetch_error"
	default:
		return "unknown"
	}
}

// MentionResult is what the mention use case hands back to the bot boundary.
// Chunks is only populated on success; Err carries the cause otherwise.
type MentionResult struct {
	Outcome MentionOutcome
	Chunks  []ReplyChunk
	Members int
	Err     error
}
