package live

import (
	"fmt"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

// SubmitQuestion runs the Q&A submission pipeline, sharing the chat
// gates: live-ness, ban, slow mode, text bounds. When the stream
// requires approval the question is parked in the moderation queue
// and stays invisible until a moderator approves it.
func (r *Room) SubmitQuestion(author domain.Viewer, text string, now time.Time) (*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.cfg.AllowQuestions || r.stream.Status != domain.StreamStatusLive {
		return nil, ErrQuestionsDisabled
	}
	if r.bannedLocked(author.ID, now) {
		return nil, ErrBanned
	}
	if !r.slowModeAllowsLocked(author.ID, now) {
		return nil, ErrRateLimited
	}
	if len(text) == 0 || len(text) > r.cfg.MaxMessageLength {
		return nil, fmt.Errorf("%w: text must be 1-%d characters", ErrInvalidMessage, r.cfg.MaxMessageLength)
	}

	id, err := r.ids.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate question id: %w", err)
	}

	question := domain.Question{
		ID:          id,
		StreamID:    r.stream.ID,
		AuthorID:    author.UserID(),
		DisplayName: author.DisplayName,
		Text:        text,
		Status:      domain.QuestionStatusPending,
		CreatedAt:   now,
	}

	r.lastAccepted[author.ID] = now
	r.stats.QuestionCount++

	if r.cfg.RequireApproval {
		r.queuePendingLocked(&ModerationItem{
			ID:        question.ID,
			Kind:      ItemKindQuestion,
			Question:  &question,
			CreatedAt: now,
		})
		return &question, nil
	}

	r.addQuestionLocked(&question)
	return &question, nil
}

// addQuestionLocked makes a question visible and announces it.
func (r *Room) addQuestionLocked(q *domain.Question) {
	r.questions = append(r.questions, q)
	r.questionID[q.ID] = q
	r.broadcast(pubsub.EventQuestionVisible, domain.QuestionVisiblePayload{Question: *q})
}

// AnswerQuestion records the speaker's answer to a visible question.
func (r *Room) AnswerQuestion(questionID, answer, answeredBy string, now time.Time) (*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questionID[questionID]
	if !ok {
		return nil, ErrNotFound
	}
	q.Status = domain.QuestionStatusAnswered
	q.Answer = answer
	q.AnsweredBy = answeredBy
	q.AnsweredAt = &now

	r.broadcast(pubsub.EventQuestionAnswered, domain.QuestionAnsweredPayload{Question: *q})
	out := *q
	return &out, nil
}

// ArchiveQuestion hides a question from the live list while keeping
// it for the final snapshot.
func (r *Room) ArchiveQuestion(questionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questionID[questionID]
	if !ok {
		return ErrNotFound
	}
	q.Status = domain.QuestionStatusArchived
	return nil
}

// Questions returns visible questions in submission order. Archived
// questions are included only on request.
func (r *Room) Questions(includeArchived bool) []domain.Question {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Question, 0, len(r.questions))
	for _, q := range r.questions {
		if q.Status == domain.QuestionStatusArchived && !includeArchived {
			continue
		}
		out = append(out, *q)
	}
	return out
}
