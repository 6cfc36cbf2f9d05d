package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/response"
)

// errorCode maps an engine error to the API error code and status.
func errorCode(err error) (int, string, bool) {
	switch {
	case errors.Is(err, live.ErrRoomNotLive):
		return http.StatusConflict, "ROOM_NOT_LIVE", true
	case errors.Is(err, live.ErrChatDisabled):
		return http.StatusForbidden, "CHAT_DISABLED", true
	case errors.Is(err, live.ErrBanned):
		return http.StatusForbidden, "BANNED", true
	case errors.Is(err, live.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", true
	case errors.Is(err, live.ErrInvalidMessage):
		return http.StatusBadRequest, "INVALID_MESSAGE", true
	case errors.Is(err, live.ErrPollInactive):
		return http.StatusConflict, "POLL_INACTIVE", true
	case errors.Is(err, live.ErrInvalidOption):
		return http.StatusBadRequest, "INVALID_OPTION", true
	case errors.Is(err, live.ErrAlreadyVoted):
		return http.StatusConflict, "ALREADY_VOTED", true
	case errors.Is(err, live.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS", true
	case errors.Is(err, live.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", true
	case errors.Is(err, live.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", true
	case errors.Is(err, live.ErrReactionsDisabled):
		return http.StatusForbidden, "REACTIONS_DISABLED", true
	case errors.Is(err, live.ErrQuestionsDisabled):
		return http.StatusForbidden, "QUESTIONS_DISABLED", true
	}
	return 0, "", false
}

// respondError writes the mapped engine error, or a logged 500 for
// anything unexpected.
func respondError(c *gin.Context, err error, msg string) {
	if status, code, ok := errorCode(err); ok {
		response.Error(c, status, code, err.Error())
		return
	}
	l := log.Ctx(c.Request.Context())
	l.Error().Err(err).Msg(msg)
	response.InternalError(c, msg)
}
