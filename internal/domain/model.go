package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/database"
)

// StreamModel is the GORM model for the live_streams table. Stats
// columns are written once, when the final snapshot is archived.
type StreamModel struct {
	ID               string `gorm:"type:varchar(36);primaryKey"`
	Title            string `gorm:"type:varchar(200);not null"`
	Description      string `gorm:"type:text"`
	Speaker          string `gorm:"type:varchar(100)"`
	Status           string `gorm:"type:varchar(20);index;not null;default:'scheduled'"`
	ExternalStreamID string `gorm:"type:varchar(100)"`
	PlaybackURL      string `gorm:"type:varchar(500)"`

	AllowChat           bool `gorm:"default:true"`
	AllowQuestions      bool `gorm:"default:true"`
	ModerateChat        bool `gorm:"default:false"`
	RequireApproval     bool `gorm:"default:false"`
	ChatSlowModeSeconds int  `gorm:"default:0"`
	MaxMessageLength    int  `gorm:"default:500"`
	EnablePolls         bool `gorm:"default:true"`
	EnableReactions     bool `gorm:"default:true"`

	PeakViewers   int `gorm:"default:0"`
	TotalJoins    int `gorm:"default:0"`
	MessageCount  int `gorm:"default:0"`
	QuestionCount int `gorm:"default:0"`
	VoteCount     int `gorm:"default:0"`
	ReactionCount int `gorm:"default:0"`

	CreatedBy   string `gorm:"type:varchar(36);index"`
	ScheduledAt *time.Time
	StartedAt   *time.Time
	EndedAt     *time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for StreamModel.
func (StreamModel) TableName() string {
	return "live_streams"
}

// ToDomain converts StreamModel to a domain LiveStream.
func (m *StreamModel) ToDomain() *LiveStream {
	return &LiveStream{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		Speaker:          m.Speaker,
		Status:           StreamStatus(m.Status),
		ExternalStreamID: m.ExternalStreamID,
		PlaybackURL:      m.PlaybackURL,
		Config: StreamConfig{
			AllowChat:           m.AllowChat,
			AllowQuestions:      m.AllowQuestions,
			ModerateChat:        m.ModerateChat,
			RequireApproval:     m.RequireApproval,
			ChatSlowModeSeconds: m.ChatSlowModeSeconds,
			MaxMessageLength:    m.MaxMessageLength,
			EnablePolls:         m.EnablePolls,
			EnableReactions:     m.EnableReactions,
		},
		ScheduledAt: m.ScheduledAt,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// StreamToModel converts a domain LiveStream to a StreamModel.
func StreamToModel(s *LiveStream) *StreamModel {
	return &StreamModel{
		ID:                  s.ID,
		Title:               s.Title,
		Description:         s.Description,
		Speaker:             s.Speaker,
		Status:              string(s.Status),
		ExternalStreamID:    s.ExternalStreamID,
		PlaybackURL:         s.PlaybackURL,
		AllowChat:           s.Config.AllowChat,
		AllowQuestions:      s.Config.AllowQuestions,
		ModerateChat:        s.Config.ModerateChat,
		RequireApproval:     s.Config.RequireApproval,
		ChatSlowModeSeconds: s.Config.ChatSlowModeSeconds,
		MaxMessageLength:    s.Config.MaxMessageLength,
		EnablePolls:         s.Config.EnablePolls,
		EnableReactions:     s.Config.EnableReactions,
		CreatedBy:           s.CreatedBy,
		ScheduledAt:         s.ScheduledAt,
		StartedAt:           s.StartedAt,
		EndedAt:             s.EndedAt,
		CreatedAt:           s.CreatedAt,
	}
}

// MessageModel is the GORM model for archived chat messages.
type MessageModel struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	StreamID    string `gorm:"type:varchar(36);index;not null"`
	AuthorID    string `gorm:"type:varchar(36);index"`
	DisplayName string `gorm:"type:varchar(100)"`
	Text        string `gorm:"type:text;not null"`
	Type        string `gorm:"type:varchar(20);not null;default:'message'"`
	Status      string `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	ApprovedAt  *time.Time
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "chat_messages"
}

// ToDomain converts MessageModel to a domain ChatMessage.
func (m *MessageModel) ToDomain() ChatMessage {
	return ChatMessage{
		ID:          m.ID,
		StreamID:    m.StreamID,
		AuthorID:    m.AuthorID,
		DisplayName: m.DisplayName,
		Text:        m.Text,
		Type:        MessageType(m.Type),
		Status:      MessageStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		ApprovedAt:  m.ApprovedAt,
	}
}

// MessageToModel converts a domain ChatMessage to a MessageModel.
func MessageToModel(msg *ChatMessage) *MessageModel {
	return &MessageModel{
		ID:          msg.ID,
		StreamID:    msg.StreamID,
		AuthorID:    msg.AuthorID,
		DisplayName: msg.DisplayName,
		Text:        msg.Text,
		Type:        string(msg.Type),
		Status:      string(msg.Status),
		CreatedAt:   msg.CreatedAt,
		ApprovedAt:  msg.ApprovedAt,
	}
}

// PollModel is the GORM model for archived polls. Option texts are
// stored in creation order; option IDs are derived from the order.
type PollModel struct {
	ID        string               `gorm:"type:varchar(36);primaryKey"`
	StreamID  string               `gorm:"type:varchar(36);index;not null"`
	Question  string               `gorm:"type:varchar(300);not null"`
	Options   database.StringArray `gorm:"type:text"`
	IsActive  bool                 `gorm:"default:false"`
	CreatedBy string               `gorm:"type:varchar(36)"`
	CreatedAt time.Time
	EndedAt   *time.Time
}

// TableName specifies the table name for PollModel.
func (PollModel) TableName() string {
	return "polls"
}

// ToDomain converts PollModel to a domain Poll.
func (m *PollModel) ToDomain() Poll {
	options := make([]PollOption, len(m.Options))
	for i, text := range m.Options {
		options[i] = PollOption{ID: OptionID(i), Text: text}
	}
	return Poll{
		ID:        m.ID,
		StreamID:  m.StreamID,
		Question:  m.Question,
		Options:   options,
		IsActive:  m.IsActive,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		EndedAt:   m.EndedAt,
	}
}

// PollToModel converts a domain Poll to a PollModel.
func PollToModel(p *Poll) *PollModel {
	options := make(database.StringArray, len(p.Options))
	for i, opt := range p.Options {
		options[i] = opt.Text
	}
	return &PollModel{
		ID:        p.ID,
		StreamID:  p.StreamID,
		Question:  p.Question,
		Options:   options,
		IsActive:  p.IsActive,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		EndedAt:   p.EndedAt,
	}
}

// VoteModel is the GORM model for archived poll votes. The composite
// primary key mirrors the one-vote-per-user invariant.
type VoteModel struct {
	PollID    string `gorm:"type:varchar(36);primaryKey"`
	UserID    string `gorm:"type:varchar(36);primaryKey"`
	OptionID  string `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time
}

// TableName specifies the table name for VoteModel.
func (VoteModel) TableName() string {
	return "poll_votes"
}

// QuestionModel is the GORM model for archived questions.
type QuestionModel struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	StreamID    string `gorm:"type:varchar(36);index;not null"`
	AuthorID    string `gorm:"type:varchar(36)"`
	DisplayName string `gorm:"type:varchar(100)"`
	Text        string `gorm:"type:text;not null"`
	Status      string `gorm:"type:varchar(20);not null;default:'pending'"`
	Answer      string `gorm:"type:text"`
	AnsweredBy  string `gorm:"type:varchar(36)"`
	CreatedAt   time.Time
	AnsweredAt  *time.Time
}

// TableName specifies the table name for QuestionModel.
func (QuestionModel) TableName() string {
	return "questions"
}

// ToDomain converts QuestionModel to a domain Question.
func (m *QuestionModel) ToDomain() Question {
	return Question{
		ID:          m.ID,
		StreamID:    m.StreamID,
		AuthorID:    m.AuthorID,
		DisplayName: m.DisplayName,
		Text:        m.Text,
		Status:      QuestionStatus(m.Status),
		Answer:      m.Answer,
		AnsweredBy:  m.AnsweredBy,
		CreatedAt:   m.CreatedAt,
		AnsweredAt:  m.AnsweredAt,
	}
}

// QuestionToModel converts a domain Question to a QuestionModel.
func QuestionToModel(q *Question) *QuestionModel {
	return &QuestionModel{
		ID:          q.ID,
		StreamID:    q.StreamID,
		AuthorID:    q.AuthorID,
		DisplayName: q.DisplayName,
		Text:        q.Text,
		Status:      string(q.Status),
		Answer:      q.Answer,
		AnsweredBy:  q.AnsweredBy,
		CreatedAt:   q.CreatedAt,
		AnsweredAt:  q.AnsweredAt,
	}
}

// BanModel is the GORM model for stream bans.
type BanModel struct {
	StreamID  string `gorm:"type:varchar(36);primaryKey"`
	UserID    string `gorm:"type:varchar(36);primaryKey"`
	Reason    string `gorm:"type:varchar(300)"`
	BannedBy  string `gorm:"type:varchar(36)"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// TableName specifies the table name for BanModel.
func (BanModel) TableName() string {
	return "stream_bans"
}

// ToDomain converts BanModel to a domain Ban.
func (m *BanModel) ToDomain() Ban {
	return Ban{
		StreamID:  m.StreamID,
		UserID:    m.UserID,
		Reason:    m.Reason,
		BannedBy:  m.BannedBy,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

// BanToModel converts a domain Ban to a BanModel.
func BanToModel(b *Ban) *BanModel {
	return &BanModel{
		StreamID:  b.StreamID,
		UserID:    b.UserID,
		Reason:    b.Reason,
		BannedBy:  b.BannedBy,
		ExpiresAt: b.ExpiresAt,
		CreatedAt: b.CreatedAt,
	}
}

// ModerationActionModel is the GORM model for the moderation audit trail.
type ModerationActionModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	StreamID  string `gorm:"type:varchar(36);index;not null"`
	ItemID    string `gorm:"type:varchar(36);not null"`
	ItemKind  string `gorm:"type:varchar(20);not null"`
	Decision  string `gorm:"type:varchar(20);not null"`
	Reason    string `gorm:"type:varchar(300)"`
	DecidedBy string `gorm:"type:varchar(36)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for ModerationActionModel.
func (ModerationActionModel) TableName() string {
	return "moderation_actions"
}
