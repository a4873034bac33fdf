package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/gymboo/gym-backend/internal/utils"
)

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("secret")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInjectsMemberID(t *testing.T) {
	at, err := utils.NewAccessToken("secret", 5, "amy@example.com", 15)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got uint64
	h := JWTAuth("secret")(func(c echo.Context) error {
		got, _ = c.Get("member_id").(uint64)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint64(5), got)
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := OptionalAuth("secret")(func(c echo.Context) error {
		require.Nil(t, c.Get("member_id"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsForeignSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 5, "amy@example.com", 15)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth("secret")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
