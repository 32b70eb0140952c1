package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type probeReply struct {
	AuthDisabled bool    `json:"authDisabled"`
	User         *string `json:"user"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestDoDropsEmptyQueryValues(t *testing.T) {
	t.Parallel()

	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{}`)
	})

	_, err := Do[struct{}](context.Background(), c, Request{
		Path:  "/api/trades",
		Query: map[string]string{"a": "", "b": "", "c": "x"},
	})
	require.NoError(t, err)
	require.Equal(t, "c=x", gotQuery)
}

func TestDoDecodesSnakeCaseBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"auth_disabled": true, "user": "jane@example.com"}`)
	})

	out, err := Do[probeReply](context.Background(), c, Request{Path: "/api/me"})
	require.NoError(t, err)
	require.True(t, out.AuthDisabled)
	require.NotNil(t, out.User)
	require.Equal(t, "jane@example.com", *out.User)
}

func TestDoEncodesBodyAsSnakeCase(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"ok": true}`)
	})

	body := struct {
		IdentityToken string `json:"identityToken"`
		FullName      string `json:"fullName"`
	}{IdentityToken: "tok", FullName: "Jane Doe"}

	_, err := Do[struct {
		OK bool `json:"ok"`
	}](context.Background(), c, Request{Path: "/api/auth/apple", Method: http.MethodPost, Body: body})
	require.NoError(t, err)
	require.Equal(t, "tok", gotBody["identity_token"])
	require.Equal(t, "Jane Doe", gotBody["full_name"])
}

func TestDoSurfacesDetailOnFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"detail": "quota exceeded"}`)
	})

	_, err := Do[struct{}](context.Background(), c, Request{Path: "/api/trades"})
	require.Error(t, err)
	apiErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, "quota exceeded", apiErr.Message)
}

func TestDoFallsBackToStatusMessage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := Do[struct{}](context.Background(), c, Request{Path: "/api/me"})
	require.Error(t, err)
	require.Equal(t, "Request failed with status 502.", err.(*Error).Message)
}

func TestDoNormalizesTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = Do[struct{}](context.Background(), c, Request{Path: "/api/me"})
	require.Error(t, err)
	require.Equal(t, "Invalid server response.", err.(*Error).Message)
}

func TestDoTreatsSchemaMismatchAsError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json at all`)
	})

	_, err := Do[probeReply](context.Background(), c, Request{Path: "/api/me"})
	require.Error(t, err)
	require.Equal(t, "Invalid server response.", err.(*Error).Message)
}

func TestClientKeepsSessionCookie(t *testing.T) {
	t.Parallel()

	var sawCookie bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/apple":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
			io.WriteString(w, `{"ok": true}`)
		default:
			cookie, err := r.Cookie("session")
			sawCookie = err == nil && cookie.Value == "abc123"
			io.WriteString(w, `{"auth_disabled": false, "user": "jane@example.com"}`)
		}
	})

	_, err := Do[struct {
		OK bool `json:"ok"`
	}](context.Background(), c, Request{Path: "/api/auth/apple", Method: http.MethodPost, Body: map[string]string{}})
	require.NoError(t, err)

	_, err = Do[probeReply](context.Background(), c, Request{Path: "/api/me"})
	require.NoError(t, err)
	require.True(t, sawCookie)
}

func TestSharedHTTPClientSpansPipelines(t *testing.T) {
	t.Parallel()

	shared, err := SharedHTTPClient()
	require.NoError(t, err)

	var cookieSeen bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "xyz", Path: "/"})
		} else {
			_, err := r.Cookie("session")
			cookieSeen = err == nil
		}
		io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	a, err := New(srv.URL, WithHTTPClient(shared))
	require.NoError(t, err)
	b, err := New(srv.URL, WithHTTPClient(shared))
	require.NoError(t, err)

	_, err = Do[struct{}](context.Background(), a, Request{Path: "/set"})
	require.NoError(t, err)
	_, err = Do[struct{}](context.Background(), b, Request{Path: "/get"})
	require.NoError(t, err)
	require.True(t, cookieSeen)
}

func TestRawReturnsUndecodedBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "ticker,shares\nACME,100\n")
	})

	out, err := c.Raw(context.Background(), Request{Path: "/api/trades.csv"})
	require.NoError(t, err)
	require.Equal(t, "ticker,shares\nACME,100\n", string(out))
}

func TestRequestCarriesCorrelationID(t *testing.T) {
	t.Parallel()

	var gotID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		io.WriteString(w, `{}`)
	})

	_, err := Do[struct{}](context.Background(), c, Request{Path: "/api/health"})
	require.NoError(t, err)
	require.NotEmpty(t, gotID)
}
