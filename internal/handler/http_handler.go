package handler

import (
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/service"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/middleware"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/response"
)

// Anonymous viewers keep their identity across calls via this header.
const viewerIDHeader = "X-Viewer-ID"

// Handler handles HTTP requests for the live engagement API.
type Handler struct {
	streams        service.StreamService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(streams service.StreamService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		streams:        streams,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := h.authMiddleware

	api := r.Group("/api/v1")
	{
		streams := api.Group("/streams")
		{
			// Public routes
			streams.GET("", h.ListStreams)
			streams.GET("/:id", h.GetStream)
			streams.GET("/:id/messages", h.ListMessages)
			streams.GET("/:id/questions", h.ListQuestions)
			streams.GET("/:id/polls", h.ListPolls)
			streams.GET("/:id/presence", h.GetPresence)

			// Viewer routes, token optional
			streams.POST("/:id/messages", auth.OptionalAuth(), h.SubmitMessage)
			streams.POST("/:id/questions", auth.OptionalAuth(), h.SubmitQuestion)
			streams.POST("/:id/reactions", auth.OptionalAuth(), h.React)
			streams.POST("/:id/polls/:pid/votes", auth.RequireAuth(), h.Vote)

			// Moderator routes
			mod := streams.Group("", auth.RequireAuth(), auth.RequireRole(middleware.RoleModerator))
			{
				mod.GET("/:id/stats", h.GetStats)
				mod.POST("/:id/bans", h.BanViewer)
				mod.DELETE("/:id/bans/:userId", h.UnbanViewer)
				mod.GET("/:id/bans", h.ListBans)
				mod.GET("/:id/moderation", h.ListPending)
				mod.POST("/:id/moderation/:itemId", h.Decide)
				mod.POST("/:id/polls", h.CreatePoll)
				mod.POST("/:id/polls/:pid/end", h.EndPoll)
				mod.POST("/:id/questions/:qid/answer", h.AnswerQuestion)
				mod.POST("/:id/questions/:qid/archive", h.ArchiveQuestion)
			}

			// Admin routes
			admin := streams.Group("", auth.RequireAuth(), auth.RequireRole(middleware.RoleAdmin))
			{
				admin.POST("", h.CreateStream)
				admin.POST("/:id/start", h.StartStream)
				admin.POST("/:id/end", h.EndStream)
				admin.POST("/:id/cancel", h.CancelStream)
			}
		}
	}
}

// viewerFrom resolves the caller's viewer identity: authenticated
// callers use their account, anonymous callers get a sticky nanoid.
func viewerFrom(c *gin.Context, displayName string) domain.Viewer {
	if userID := middleware.GetUserID(c); userID != "" {
		name := middleware.GetUsername(c)
		if displayName != "" {
			name = displayName
		}
		return domain.Viewer{ID: userID, DisplayName: name}
	}

	id := c.GetHeader(viewerIDHeader)
	if id == "" {
		id, _ = gonanoid.New()
		c.Header(viewerIDHeader, id)
	}
	if displayName == "" {
		displayName = "Guest"
	}
	return domain.Viewer{ID: id, DisplayName: displayName, Anonymous: true}
}

// CreateStream creates a new scheduled stream.
func (h *Handler) CreateStream(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create stream request")
		response.BadRequest(c, err.Error())
		return
	}

	stream, err := h.streams.CreateStream(ctx, middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "failed to create stream")
		return
	}
	response.Created(c, stream)
}

// GetStream retrieves a stream by ID.
func (h *Handler) GetStream(c *gin.Context) {
	stream, err := h.streams.GetStream(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to get stream")
		return
	}
	response.Success(c, stream)
}

// ListStreams lists streams with pagination.
func (h *Handler) ListStreams(c *gin.Context) {
	var req domain.ListStreamsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.streams.ListStreams(c.Request.Context(), req.Page, req.PageSize, req.Status)
	if err != nil {
		respondError(c, err, "failed to list streams")
		return
	}
	response.Success(c, result)
}

// StartStream transitions a stream to live.
func (h *Handler) StartStream(c *gin.Context) {
	stream, err := h.streams.StartStream(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to start stream")
		return
	}
	response.Success(c, stream)
}

// EndStream ends a live stream and archives its snapshot.
func (h *Handler) EndStream(c *gin.Context) {
	if err := h.streams.EndStream(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err, "failed to end stream")
		return
	}
	response.Success(c, gin.H{"status": domain.StreamStatusEnded})
}

// CancelStream cancels a stream.
func (h *Handler) CancelStream(c *gin.Context) {
	if err := h.streams.CancelStream(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, err, "failed to cancel stream")
		return
	}
	response.Success(c, gin.H{"status": domain.StreamStatusCancelled})
}

// SubmitMessage accepts a chat message over REST.
func (h *Handler) SubmitMessage(c *gin.Context) {
	var req domain.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	author := viewerFrom(c, req.DisplayName)
	msg, err := h.streams.SubmitChat(c.Request.Context(), c.Param("id"), author, &req)
	if err != nil {
		respondError(c, err, "failed to submit message")
		return
	}
	response.Created(c, msg)
}

// ListMessages returns chat history: the live ring while the stream is
// open, archived pages afterwards.
func (h *Handler) ListMessages(c *gin.Context) {
	var req domain.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, err := h.streams.Messages(c.Request.Context(), c.Param("id"), req.Cursor, req.Limit)
	if err != nil {
		respondError(c, err, "failed to list messages")
		return
	}
	response.Success(c, page)
}

// SubmitQuestion accepts an audience question.
func (h *Handler) SubmitQuestion(c *gin.Context) {
	var req domain.SubmitQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	author := viewerFrom(c, req.DisplayName)
	question, err := h.streams.SubmitQuestion(c.Request.Context(), c.Param("id"), author, &req)
	if err != nil {
		respondError(c, err, "failed to submit question")
		return
	}
	response.Created(c, question)
}

// ListQuestions lists a stream's visible questions.
func (h *Handler) ListQuestions(c *gin.Context) {
	var req domain.ListQuestionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	questions, err := h.streams.Questions(c.Request.Context(), c.Param("id"), req.IncludeArchived)
	if err != nil {
		respondError(c, err, "failed to list questions")
		return
	}
	response.Success(c, questions)
}

// ListPolls lists a stream's polls with live tallies.
func (h *Handler) ListPolls(c *gin.Context) {
	polls, err := h.streams.Polls(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to list polls")
		return
	}
	response.Success(c, polls)
}

// Vote records the caller's poll choice.
func (h *Handler) Vote(c *gin.Context) {
	var req domain.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	voter := viewerFrom(c, "")
	results, err := h.streams.Vote(c.Request.Context(), c.Param("id"), c.Param("pid"), voter, req.OptionID)
	if err != nil {
		respondError(c, err, "failed to vote")
		return
	}
	response.Success(c, results)
}

// React broadcasts an emoji reaction.
func (h *Handler) React(c *gin.Context) {
	var req domain.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	viewer := viewerFrom(c, req.DisplayName)
	if err := h.streams.React(c.Request.Context(), c.Param("id"), viewer, req.Emoji); err != nil {
		respondError(c, err, "failed to react")
		return
	}
	response.Success(c, gin.H{"accepted": true})
}

// GetPresence returns the current viewer counts.
func (h *Handler) GetPresence(c *gin.Context) {
	counts, err := h.streams.Presence(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to get presence")
		return
	}
	response.Success(c, counts)
}

// GetStats returns a stream's engagement counters.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.streams.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to get stats")
		return
	}
	response.Success(c, stats)
}

// BanViewer bars a viewer from the stream.
func (h *Handler) BanViewer(c *gin.Context) {
	var req domain.BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ban, err := h.streams.Ban(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "failed to ban viewer")
		return
	}
	response.Created(c, ban)
}

// UnbanViewer lifts a ban.
func (h *Handler) UnbanViewer(c *gin.Context) {
	err := h.streams.Unban(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("userId"))
	if err != nil {
		respondError(c, err, "failed to unban viewer")
		return
	}
	response.Success(c, gin.H{"unbanned": true})
}

// ListBans lists a stream's active bans.
func (h *Handler) ListBans(c *gin.Context) {
	bans, err := h.streams.Bans(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to list bans")
		return
	}
	response.Success(c, bans)
}

// ListPending lists the moderation queue, filterable by kind and
// message type.
func (h *Handler) ListPending(c *gin.Context) {
	kind := c.Query("kind")
	msgType := domain.MessageType(c.Query("type"))

	items, err := h.streams.PendingItems(c.Request.Context(), c.Param("id"), kind, msgType)
	if err != nil {
		respondError(c, err, "failed to list pending items")
		return
	}
	response.Success(c, items)
}

// Decide resolves a pending item or removes a visible message.
func (h *Handler) Decide(c *gin.Context) {
	var req domain.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.streams.Decide(c.Request.Context(), c.Param("id"), middleware.GetUserID(c),
		c.Param("itemId"), domain.MessageStatus(req.Decision), req.Reason)
	if err != nil {
		respondError(c, err, "failed to decide")
		return
	}
	response.Success(c, gin.H{"decision": req.Decision})
}

// CreatePoll opens a new poll.
func (h *Handler) CreatePoll(c *gin.Context) {
	var req domain.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	poll, err := h.streams.CreatePoll(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), &req)
	if err != nil {
		respondError(c, err, "failed to create poll")
		return
	}
	response.Created(c, poll)
}

// EndPoll closes a poll and returns the final tallies.
func (h *Handler) EndPoll(c *gin.Context) {
	result, err := h.streams.EndPoll(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("pid"))
	if err != nil {
		respondError(c, err, "failed to end poll")
		return
	}
	response.Success(c, result)
}

// AnswerQuestion records an answer to a question.
func (h *Handler) AnswerQuestion(c *gin.Context) {
	var req domain.AnswerQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	question, err := h.streams.AnswerQuestion(c.Request.Context(), c.Param("id"), middleware.GetUserID(c),
		c.Param("qid"), req.Answer)
	if err != nil {
		respondError(c, err, "failed to answer question")
		return
	}
	response.Success(c, question)
}

// ArchiveQuestion hides a question from the live list.
func (h *Handler) ArchiveQuestion(c *gin.Context) {
	err := h.streams.ArchiveQuestion(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("qid"))
	if err != nil {
		respondError(c, err, "failed to archive question")
		return
	}
	response.Success(c, gin.H{"archived": true})
}
