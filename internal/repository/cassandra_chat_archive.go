package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/config"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// CassandraChatArchive stores archived chat messages in Cassandra,
// partitioned by stream with messages clustered by ID. Message IDs are
// ULIDs, so the clustering order is chronological.
type CassandraChatArchive struct {
	session *gocql.Session
}

// NewCassandraChatArchive connects to the cluster and prepares the
// archive session.
func NewCassandraChatArchive(cfg config.CassandraConfig) (*CassandraChatArchive, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	switch cfg.Consistency {
	case "LOCAL_ONE":
		cluster.Consistency = gocql.LocalOne
	case "LOCAL_QUORUM":
		cluster.Consistency = gocql.LocalQuorum
	case "ONE":
		cluster.Consistency = gocql.One
	case "QUORUM":
		cluster.Consistency = gocql.Quorum
	default:
		cluster.Consistency = gocql.LocalOne
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &CassandraChatArchive{session: session}, nil
}

// ArchiveMessages writes the retained history of an ended stream.
// Inserts are idempotent on (stream_id, message_id).
func (a *CassandraChatArchive) ArchiveMessages(ctx context.Context, streamID string, messages []domain.ChatMessage) error {
	const stmt = `INSERT INTO messages_by_stream
		(stream_id, message_id, author_id, display_name, content, type, status, created_at, approved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range messages {
		msg := &messages[i]
		var approvedAt time.Time
		if msg.ApprovedAt != nil {
			approvedAt = *msg.ApprovedAt
		}
		err := a.session.Query(stmt,
			streamID,
			msg.ID,
			msg.AuthorID,
			msg.DisplayName,
			msg.Text,
			string(msg.Type),
			string(msg.Status),
			msg.CreatedAt,
			approvedAt,
		).WithContext(ctx).Exec()
		if err != nil {
			return fmt.Errorf("archive message %s: %w", msg.ID, err)
		}
	}
	return nil
}

// Messages returns one page of archived messages in chronological
// order, walking the partition forward from the cursor.
func (a *CassandraChatArchive) Messages(ctx context.Context, streamID, cursor string, limit int) ([]domain.ChatMessage, string, bool, error) {
	// Query limit + 1 to determine if there are more results
	queryLimit := limit + 1

	var query string
	var args []interface{}
	if cursor == "" {
		query = `SELECT message_id, author_id, display_name, content, type, status, created_at, approved_at
				 FROM messages_by_stream
				 WHERE stream_id = ?
				 ORDER BY message_id ASC
				 LIMIT ?`
		args = []interface{}{streamID, queryLimit}
	} else {
		query = `SELECT message_id, author_id, display_name, content, type, status, created_at, approved_at
				 FROM messages_by_stream
				 WHERE stream_id = ? AND message_id > ?
				 ORDER BY message_id ASC
				 LIMIT ?`
		args = []interface{}{streamID, cursor, queryLimit}
	}

	iter := a.session.Query(query, args...).WithContext(ctx).Iter()

	var messages []domain.ChatMessage
	var (
		msgType    string
		status     string
		approvedAt time.Time
	)
	msg := domain.ChatMessage{StreamID: streamID}

	for iter.Scan(
		&msg.ID,
		&msg.AuthorID,
		&msg.DisplayName,
		&msg.Text,
		&msgType,
		&status,
		&msg.CreatedAt,
		&approvedAt,
	) {
		msg.Type = domain.MessageType(msgType)
		msg.Status = domain.MessageStatus(status)
		if !approvedAt.IsZero() {
			at := approvedAt
			msg.ApprovedAt = &at
		}
		messages = append(messages, msg)
		msg = domain.ChatMessage{StreamID: streamID}
	}

	if err := iter.Close(); err != nil {
		return nil, "", false, fmt.Errorf("failed to iterate messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	var nextCursor string
	if len(messages) > 0 {
		nextCursor = messages[len(messages)-1].ID
	}
	return messages, nextCursor, hasMore, nil
}

// Close shuts down the Cassandra session.
func (a *CassandraChatArchive) Close() error {
	a.session.Close()
	return nil
}
