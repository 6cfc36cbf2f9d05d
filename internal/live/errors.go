package live

import "errors"

// Expected engine errors. All are recoverable conditions reported to
// the caller; a rejected action leaves no state behind.
var (
	ErrRoomNotLive       = errors.New("room is not live")
	ErrChatDisabled      = errors.New("chat is disabled for this stream")
	ErrBanned            = errors.New("viewer is banned from this stream")
	ErrRateLimited       = errors.New("slow mode is active, please wait")
	ErrInvalidMessage    = errors.New("invalid message")
	ErrPollInactive      = errors.New("poll is not active")
	ErrInvalidOption     = errors.New("invalid poll option")
	ErrAlreadyVoted      = errors.New("already voted in this poll")
	ErrAlreadyExists     = errors.New("room already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid stream status transition")
	ErrReactionsDisabled = errors.New("reactions are disabled for this stream")
	ErrQuestionsDisabled = errors.New("questions are disabled for this stream")
)
