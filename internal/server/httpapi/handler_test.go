package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/logging"
	"github.com/ddanilenko/famledger/internal/server/auth"
	"github.com/ddanilenko/famledger/internal/server/models"
	"github.com/ddanilenko/famledger/internal/server/sync"
)

const testSecret = "test-secret"

type fakeUserService struct {
	registerFunc func(ctx context.Context, email, password, name string) (*models.User, string, error)
	loginFunc    func(ctx context.Context, email, password string) (string, error)
}

func (f *fakeUserService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	return f.registerFunc(ctx, email, password, name)
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (string, error) {
	return f.loginFunc(ctx, email, password)
}

type fakeSyncService struct {
	syncFunc func(ctx context.Context, familyID, actorID string, req *sync.Request) (*sync.Response, error)
}

func (f *fakeSyncService) Sync(ctx context.Context, familyID, actorID string, req *sync.Request) (*sync.Response, error) {
	return f.syncFunc(ctx, familyID, actorID, req)
}

func newTestServer(us userService, ss syncService) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(":0", logger, us, ss, testSecret)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPing(t *testing.T) {
	s := newTestServer(&fakeUserService{}, &fakeSyncService{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignup(t *testing.T) {
	us := &fakeUserService{
		registerFunc: func(_ context.Context, email, password, name string) (*models.User, string, error) {
			require.Equal(t, "anna@example.com", email)
			return &models.User{ID: "u-1", FamilyID: "f-1", Email: email, Name: name}, "tok-123", nil
		},
	}
	s := newTestServer(us, &fakeSyncService{})

	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"email": "anna@example.com", "password": "correcthorse", "name": "Anna",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "tok-123", body.Token)
	require.Equal(t, "f-1", body.FamilyID)
}

func TestSignupErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", fmt.Errorf("%w: password too short", common.ErrorValidation), http.StatusBadRequest},
		{"duplicate email", common.ErrorAlreadyExists, http.StatusConflict},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			us := &fakeUserService{
				registerFunc: func(context.Context, string, string, string) (*models.User, string, error) {
					return nil, "", tt.err
				},
			}
			s := newTestServer(us, &fakeSyncService{})

			resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
				"email": "x@example.com", "password": "irrelevant",
			}))
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestLogin(t *testing.T) {
	us := &fakeUserService{
		loginFunc: func(_ context.Context, email, password string) (string, error) {
			if password != "correcthorse" {
				return "", common.ErrorUnauthorized
			}
			return "tok-456", nil
		},
	}
	s := newTestServer(us, &fakeSyncService{})

	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "anna@example.com", "password": "correcthorse",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = s.App().Test(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "anna@example.com", "password": "wrong",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSyncRequiresToken(t *testing.T) {
	s := newTestServer(&fakeUserService{}, &fakeSyncService{})

	resp, err := s.App().Test(jsonRequest(t, http.MethodPost, "/api/v1/sync", map[string]any{}))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := jsonRequest(t, http.MethodPost, "/api/v1/sync", map[string]any{})
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSyncPassesClaimsThrough(t *testing.T) {
	var gotFamily, gotActor string
	ss := &fakeSyncService{
		syncFunc: func(_ context.Context, familyID, actorID string, req *sync.Request) (*sync.Response, error) {
			gotFamily, gotActor = familyID, actorID
			return &sync.Response{
				SyncTimestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
				Conflicts:     []sync.Conflict{},
			}, nil
		},
	}
	s := newTestServer(&fakeUserService{}, ss)

	token, err := auth.GenerateToken("user-9", "family-7", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	req := jsonRequest(t, http.MethodPost, "/api/v1/sync", map[string]any{
		"lastSyncTimestamp": nil,
		"changes":           map[string]any{},
	})
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "family-7", gotFamily)
	require.Equal(t, "user-9", gotActor)

	var body sync.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.HasConflicts)
	require.NotNil(t, body.Conflicts)
}

func TestSyncErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"oversized request", fmt.Errorf("%w: too many changes", common.ErrorValidation), http.StatusBadRequest, sync.ErrCodeValidation},
		{"transaction failure", fmt.Errorf("%w: sync transaction: timeout", common.ErrorInternal), http.StatusInternalServerError, sync.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := &fakeSyncService{
				syncFunc: func(context.Context, string, string, *sync.Request) (*sync.Response, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(&fakeUserService{}, ss)

			token, err := auth.GenerateToken("user-1", "family-1", []byte(testSecret), time.Hour)
			require.NoError(t, err)

			req := jsonRequest(t, http.MethodPost, "/api/v1/sync", map[string]any{"changes": map[string]any{}})
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := s.App().Test(req)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.wantCode, body["code"])
		})
	}
}
