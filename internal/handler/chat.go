package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gymboo/gym-backend/internal/repository"
)

// ChatHandler serves one-to-one chat rooms and messages. Rooms only open
// between accepted friends.
type ChatHandler struct {
	Chats   *repository.ChatRepo
	Friends *repository.FriendRepo
}

func NewChatHandler(chats *repository.ChatRepo, friends *repository.FriendRepo) *ChatHandler {
	return &ChatHandler{Chats: chats, Friends: friends}
}

// Rooms lists the caller's chat rooms with last message and unread count.
func (h *ChatHandler) Rooms(c echo.Context) error {
	rows, err := h.Chats.ListRooms(c.Request().Context(), memberID(c))
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

// OpenRoom returns (and if needed creates) the room with the peer in the
// path. The peer must be an accepted friend.
func (h *ChatHandler) OpenRoom(c echo.Context) error {
	peerID, err := idParam(c, "id")
	if err != nil || peerID == 0 {
		return badRequest(c, "invalid peer id")
	}
	mid := memberID(c)
	if peerID == mid {
		return badRequest(c, "cannot chat with yourself")
	}
	ctx := c.Request().Context()
	friends, err := h.Friends.AreFriends(ctx, mid, peerID)
	if err != nil {
		return storageError(c)
	}
	if !friends {
		return c.JSON(http.StatusForbidden, echo.Map{
			"success": false, "error": "you can only chat with friends",
		})
	}
	chatID, err := h.Chats.OpenRoom(ctx, mid, peerID)
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "chat_id": chatID})
}

// Messages returns the room's messages and marks the peer's as read.
func (h *ChatHandler) Messages(c echo.Context) error {
	chatID, err := idParam(c, "id")
	if err != nil {
		return badRequest(c, "invalid chat id")
	}
	rows, err := h.Chats.ListMessages(c.Request().Context(), chatID, memberID(c))
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "not a participant of this chat"})
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rows": rows})
}

type sendMsgRequest struct {
	ChatID  uint64 `json:"chat_id"`
	Content string `json:"content"`
}

// SendMsg appends a message to a room the caller participates in.
func (h *ChatHandler) SendMsg(c echo.Context) error {
	var req sendMsgRequest
	if err := c.Bind(&req); err != nil || req.ChatID == 0 || req.Content == "" {
		return badRequest(c, "chat_id and content are required")
	}
	id, err := h.Chats.Send(c.Request().Context(), req.ChatID, memberID(c), req.Content)
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "not a participant of this chat"})
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message_id": id})
}

type readMsgRequest struct {
	ChatID uint64 `json:"chat_id"`
}

// ReadMsg marks the peer's messages in the room as read.
func (h *ChatHandler) ReadMsg(c echo.Context) error {
	var req readMsgRequest
	if err := c.Bind(&req); err != nil || req.ChatID == 0 {
		return badRequest(c, "chat_id is required")
	}
	err := h.Chats.MarkRead(c.Request().Context(), req.ChatID, memberID(c))
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "not a participant of this chat"})
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type deleteChatroomRequest struct {
	ChatID uint64 `json:"chat_id"`
}

// DeleteChatroom hides the room on the caller's side only; the peer keeps
// their history.
func (h *ChatHandler) DeleteChatroom(c echo.Context) error {
	var req deleteChatroomRequest
	if err := c.Bind(&req); err != nil || req.ChatID == 0 {
		return badRequest(c, "chat_id is required")
	}
	err := h.Chats.HideRoom(c.Request().Context(), req.ChatID, memberID(c))
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "not a participant of this chat"})
	}
	if err != nil {
		return storageError(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
