package domain

import "time"

// QuestionStatus represents the answer state of a question.
// Moderation rejection discards a question entirely, so there is no
// rejected status here.
type QuestionStatus string

const (
	QuestionStatusPending  QuestionStatus = "pending"
	QuestionStatusAnswered QuestionStatus = "answered"
	QuestionStatusArchived QuestionStatus = "archived"
)

// Question represents an audience question for the speaker.
type Question struct {
	ID          string         `json:"id"`
	StreamID    string         `json:"stream_id"`
	AuthorID    string         `json:"author_id,omitempty"`
	DisplayName string         `json:"display_name"`
	Text        string         `json:"text"`
	Status      QuestionStatus `json:"status"`
	Answer      string         `json:"answer,omitempty"`
	AnsweredBy  string         `json:"answered_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	AnsweredAt  *time.Time     `json:"answered_at,omitempty"`
}

// SubmitQuestionRequest represents a question submission.
type SubmitQuestionRequest struct {
	Text        string `json:"text" binding:"required"`
	DisplayName string `json:"display_name"`
}

// AnswerQuestionRequest represents a moderator answering a question.
type AnswerQuestionRequest struct {
	Answer string `json:"answer" binding:"required,min=1,max=2000"`
}

// ListQuestionsRequest represents a question list request.
type ListQuestionsRequest struct {
	IncludeArchived bool `form:"include_archived"`
}
