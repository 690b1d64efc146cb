// internal/handlers/server_test.go
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekaustubh/matchpoint/internal/match"
)

func TestMatchErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{match.ErrMatchNotFound, http.StatusNotFound},
		{match.ErrRoomNotFound, http.StatusNotFound},
		{match.ErrUserNotFound, http.StatusNotFound},
		{match.ErrMatchClosed, http.StatusConflict},
		{match.ErrAlreadyJoined, http.StatusConflict},
		{match.ErrNoNextTurn, http.StatusConflict},
		{match.ErrUpstream, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", match.ErrMatchClosed), http.StatusConflict},
		{fmt.Errorf("%w: connection refused", match.ErrUpstream), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchErrorStatus(tc.err), "err=%v", tc.err)
	}
}

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc123", extractCookieToken("auth_token=abc123", "auth_token"))
	assert.Equal(t, "abc123", extractCookieToken("auth_token=abc123; other=x", "auth_token"))
	assert.Equal(t, "abc123", extractCookieToken("other=x; auth_token=abc123", "auth_token"))
	assert.Equal(t, "", extractCookieToken("other=x", "auth_token"))
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/room/42", nil)
	r.SetPathValue("roomID", "42")
	id, ok := pathID(r, "roomID")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	r = httptest.NewRequest(http.MethodGet, "/room/x", nil)
	r.SetPathValue("roomID", "x")
	_, ok = pathID(r, "roomID")
	assert.False(t, ok)

	r = httptest.NewRequest(http.MethodGet, "/room/-1", nil)
	r.SetPathValue("roomID", "-1")
	_, ok = pathID(r, "roomID")
	assert.False(t, ok)
}
