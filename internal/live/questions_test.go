package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

func TestSubmitQuestionVisibleImmediately(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	q, err := reg.SubmitQuestion("s1", viewer("u1"), "What time is the next service?")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStatusPending, q.Status)

	questions, err := reg.Questions("s1", false)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, q.ID, questions[0].ID)
}

func TestSubmitQuestionRequiresApproval(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.RequireApproval = true

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	q, err := reg.SubmitQuestion("s1", anonViewer("a1"), "Can I volunteer?")
	require.NoError(t, err)

	// Hidden until a moderator approves it.
	questions, err := reg.Questions("s1", false)
	require.NoError(t, err)
	assert.Empty(t, questions)

	_, err = reg.Decide("s1", q.ID, domain.MessageStatusApproved, "", "mod")
	require.NoError(t, err)

	questions, err = reg.Questions("s1", false)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Empty(t, questions[0].AuthorID)
}

func TestSubmitQuestionRejectedIsDiscarded(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.RequireApproval = true

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	q, err := reg.SubmitQuestion("s1", viewer("u1"), "Something off topic")
	require.NoError(t, err)

	_, err = reg.Decide("s1", q.ID, domain.MessageStatusRejected, "off topic", "mod")
	require.NoError(t, err)

	questions, err := reg.Questions("s1", true)
	require.NoError(t, err)
	assert.Empty(t, questions)

	_, err = reg.AnswerQuestion("s1", q.ID, "answer", "mod")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestionsDisabled(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.AllowQuestions = false

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.SubmitQuestion("s1", viewer("u1"), "Hello?")
	assert.ErrorIs(t, err, ErrQuestionsDisabled)
}

func TestAnswerQuestion(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	q, err := reg.SubmitQuestion("s1", viewer("u1"), "When is the retreat?")
	require.NoError(t, err)

	sub, err := reg.Subscribe("s1", "watcher")
	require.NoError(t, err)

	answered, err := reg.AnswerQuestion("s1", q.ID, "First weekend of August.", "pastor")
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStatusAnswered, answered.Status)
	assert.Equal(t, "First weekend of August.", answered.Answer)
	assert.Equal(t, "pastor", answered.AnsweredBy)
	require.NotNil(t, answered.AnsweredAt)

	event := <-sub.Events()
	assert.Equal(t, "question.answered", event.Type)

	_, err = reg.AnswerQuestion("s1", "missing", "answer", "pastor")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveQuestion(t *testing.T) {
	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", domain.DefaultStreamConfig())

	q, err := reg.SubmitQuestion("s1", viewer("u1"), "Archived later")
	require.NoError(t, err)
	require.NoError(t, reg.ArchiveQuestion("s1", q.ID))

	visible, err := reg.Questions("s1", false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := reg.Questions("s1", true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.QuestionStatusArchived, all[0].Status)

	// Archived questions still make the final snapshot.
	snapshot, err := reg.Transition("s1", domain.StreamStatusEnded)
	require.NoError(t, err)
	require.Len(t, snapshot.Questions, 1)
}

func TestQuestionSlowModeShared(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ChatSlowModeSeconds = 5

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	// Chat and questions share the per-viewer window.
	_, err := reg.SubmitChat("s1", viewer("u1"), "hello", domain.MessageTypeMessage)
	require.NoError(t, err)
	_, err = reg.SubmitQuestion("s1", viewer("u1"), "And a question?")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestPendingItemsFilters(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ModerateChat = true
	cfg.RequireApproval = true

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	_, err := reg.SubmitChat("s1", viewer("u1"), "a message", domain.MessageTypeMessage)
	require.NoError(t, err)
	_, err = reg.SubmitChat("s1", viewer("u2"), "a prayer", domain.MessageTypePrayer)
	require.NoError(t, err)
	_, err = reg.SubmitQuestion("s1", viewer("u3"), "a question")
	require.NoError(t, err)

	all, err := reg.PendingItems("s1", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	chats, err := reg.PendingItems("s1", ItemKindChat, "")
	require.NoError(t, err)
	assert.Len(t, chats, 2)

	prayers, err := reg.PendingItems("s1", ItemKindChat, domain.MessageTypePrayer)
	require.NoError(t, err)
	require.Len(t, prayers, 1)
	assert.Equal(t, "a prayer", prayers[0].Chat.Text)

	questions, err := reg.PendingItems("s1", ItemKindQuestion, "")
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	_, err = reg.PendingItems("missing", "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Approved-late messages appear in history at the moment of approval,
// not at their original submission position.
func TestApprovalOrderDefinesHistoryOrder(t *testing.T) {
	cfg := domain.DefaultStreamConfig()
	cfg.ModerateChat = true

	reg, _ := newTestRegistry(t, Config{})
	openLive(t, reg, "s1", cfg)

	first, err := reg.SubmitChat("s1", viewer("u1"), "submitted first", domain.MessageTypeMessage)
	require.NoError(t, err)
	second, err := reg.SubmitChat("s1", viewer("u2"), "submitted second", domain.MessageTypeMessage)
	require.NoError(t, err)

	// Approve in reverse submission order.
	_, err = reg.Decide("s1", second.ID, domain.MessageStatusApproved, "", "mod")
	require.NoError(t, err)
	_, err = reg.Decide("s1", first.ID, domain.MessageStatusApproved, "", "mod")
	require.NoError(t, err)

	history, err := reg.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "submitted second", history[0].Text)
	assert.Equal(t, "submitted first", history[1].Text)
}
