package repository

import (
	"context"
	"database/sql"
)

// ChatRepo manages one-to-one chat rooms and their messages. A room keeps a
// per-side delete flag so each participant can clear their own view without
// touching the other's.
type ChatRepo struct {
	db *sql.DB
}

// NewChatRepo returns a new ChatRepo bound to the given database.
func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{db: db} }

// RoomRow is one chat room in the member's inbox.
type RoomRow struct {
	ChatID      uint64  `json:"chat_id"`
	PeerID      uint64  `json:"peer_id"`
	PeerName    string  `json:"peer_name"`
	PeerAvatar  *string `json:"peer_avatar"`
	LastMessage *string `json:"last_message"`
	LastAt      *string `json:"last_at"`
	UnreadCount int     `json:"unread_count"`
}

// ListRooms returns the member's chat rooms with the latest message and the
// unread count, most recently active first. Rooms the member soft deleted
// are skipped.
func (r *ChatRepo) ListRooms(ctx context.Context, memberID uint64) ([]RoomRow, error) {
	const q = `SELECT c.id,
	                  m.member_id, m.name, mp.avatar,
	                  lm.content, DATE_FORMAT(lm.created_at, '%Y-%m-%d %H:%i:%s'),
	                  (SELECT COUNT(1) FROM messages
	                   WHERE chat_id = c.id AND sender_id <> ? AND is_read = 0)
	           FROM chats c
	           JOIN member m
	             ON m.member_id = IF(c.user1_id = ?, c.user2_id, c.user1_id)
	           LEFT JOIN member_profile mp ON mp.member_id = m.member_id
	           LEFT JOIN messages lm ON lm.id =
	             (SELECT id FROM messages WHERE chat_id = c.id ORDER BY id DESC LIMIT 1)
	           WHERE (c.user1_id = ? AND c.user1_delete = 0)
	              OR (c.user2_id = ? AND c.user2_delete = 0)
	           ORDER BY lm.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, memberID, memberID, memberID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RoomRow, 0)
	for rows.Next() {
		var rm RoomRow
		var name sql.NullString
		var avatar, lastMsg, lastAt sql.NullString
		if err := rows.Scan(&rm.ChatID, &rm.PeerID, &name, &avatar,
			&lastMsg, &lastAt, &rm.UnreadCount); err != nil {
			return nil, err
		}
		rm.PeerName = name.String
		if avatar.Valid {
			a := avatar.String
			rm.PeerAvatar = &a
		}
		if lastMsg.Valid {
			m := lastMsg.String
			rm.LastMessage = &m
		}
		if lastAt.Valid {
			t := lastAt.String
			rm.LastAt = &t
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// OpenRoom returns the room between the member and the peer, creating it when
// absent. Reopening revives the member's soft deleted side.
func (r *ChatRepo) OpenRoom(ctx context.Context, memberID, peerID uint64) (uint64, error) {
	low, high := orderPair(memberID, peerID)
	var chatID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM chats WHERE user1_id = ? AND user2_id = ? LIMIT 1`,
		low, high).Scan(&chatID)
	if err == sql.ErrNoRows {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO chats (user1_id, user2_id) VALUES (?, ?)`, low, high)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		return uint64(id), err
	}
	if err != nil {
		return 0, err
	}
	col := "user1_delete"
	if memberID == high {
		col = "user2_delete"
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE chats SET `+col+` = 0 WHERE id = ?`, chatID)
	return chatID, err
}

// MessageRow is one message in a room.
type MessageRow struct {
	ID        uint64 `json:"id"`
	SenderID  uint64 `json:"sender_id"`
	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// memberInRoom verifies room membership, sql.ErrNoRows when the member is
// not a participant.
func (r *ChatRepo) memberInRoom(ctx context.Context, chatID, memberID uint64) error {
	var one int
	return r.db.QueryRowContext(ctx,
		`SELECT 1 FROM chats WHERE id = ? AND (user1_id = ? OR user2_id = ?) LIMIT 1`,
		chatID, memberID, memberID).Scan(&one)
}

// ListMessages returns the room's messages oldest first and marks the peer's
// messages as read. ErrForbidden when the member is not in the room.
func (r *ChatRepo) ListMessages(ctx context.Context, chatID, memberID uint64) ([]MessageRow, error) {
	if err := r.memberInRoom(ctx, chatID, memberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrForbidden
		}
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, content, is_read,
		        DATE_FORMAT(created_at, '%Y-%m-%d %H:%i:%s')
		 FROM messages WHERE chat_id = ? ORDER BY id`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MessageRow, 0)
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE chat_id = ? AND sender_id <> ? AND is_read = 0`,
		chatID, memberID)
	return out, err
}

// Send appends a message from the member to the room. ErrForbidden when the
// member is not in the room.
func (r *ChatRepo) Send(ctx context.Context, chatID, memberID uint64, content string) (uint64, error) {
	if err := r.memberInRoom(ctx, chatID, memberID); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrForbidden
		}
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, content, is_read) VALUES (?, ?, ?, 0)`,
		chatID, memberID, content)
	if err != nil {
		return 0, err
	}
	// Sending revives both delete flags so the peer sees the room again.
	if _, err := r.db.ExecContext(ctx,
		`UPDATE chats SET user1_delete = 0, user2_delete = 0 WHERE id = ?`, chatID); err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// MarkRead marks the peer's messages in the room as read.
func (r *ChatRepo) MarkRead(ctx context.Context, chatID, memberID uint64) error {
	if err := r.memberInRoom(ctx, chatID, memberID); err != nil {
		if err == sql.ErrNoRows {
			return ErrForbidden
		}
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE chat_id = ? AND sender_id <> ? AND is_read = 0`,
		chatID, memberID)
	return err
}

// HideRoom soft deletes the room on the member's side only.
func (r *ChatRepo) HideRoom(ctx context.Context, chatID, memberID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chats
		 SET user1_delete = IF(user1_id = ?, 1, user1_delete),
		     user2_delete = IF(user2_id = ?, 1, user2_delete)
		 WHERE id = ? AND (user1_id = ? OR user2_id = ?)`,
		memberID, memberID, chatID, memberID, memberID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}
