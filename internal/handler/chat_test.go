package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gymboo/gym-backend/internal/repository"
)

func newChatContext(t *testing.T, peerID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/chats/api/"+peerID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("member_id", uint64(5))
	c.SetParamNames("id")
	c.SetParamValues(peerID)
	return c, rec
}

func TestOpenRoomRequiresFriendship(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// No friendship row: the room must not be created or looked up.
	mock.ExpectQuery("SELECT 1 FROM friendships").
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	h := NewChatHandler(repository.NewChatRepo(db), repository.NewFriendRepo(db))
	c, rec := newChatContext(t, "9")

	require.NoError(t, h.OpenRoom(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRoomCreatesRoomForFriends(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM friendships").
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT id FROM chats").
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO chats").
		WithArgs(uint64(5), uint64(9)).
		WillReturnResult(sqlmock.NewResult(3, 1))

	h := NewChatHandler(repository.NewChatRepo(db), repository.NewFriendRepo(db))
	c, rec := newChatContext(t, "9")

	require.NoError(t, h.OpenRoom(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"chat_id":3`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRoomRejectsSelfChat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewChatHandler(repository.NewChatRepo(db), repository.NewFriendRepo(db))
	c, rec := newChatContext(t, "5")

	require.NoError(t, h.OpenRoom(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
