package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Viargos/Backend-sub000/internal/core/domain"
)

// MessageRepo is the durable message store collaborator. Create is
// committed before it returns; the router relies on that ordering.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO messages (id, sender_id, receiver_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at
    `, msg.ID, senderID, receiverID, content).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepo) MarkReadBetween(ctx context.Context, senderID, receiverID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
        UPDATE messages
        SET read = TRUE
        WHERE sender_id = $1 AND receiver_id = $2 AND read = FALSE
    `, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM messages
        WHERE receiver_id = $1 AND read = FALSE
    `, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
