package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffsync/models"
	"staffsync/store"
)

func TestMain(m *testing.M) {
	SetJWTSecret("test-secret")
	m.Run()
}

func TestTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Email: "ann@example.com", Role: models.RoleStaff}

	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestValidateTokenExpired(t *testing.T) {
	user := &models.User{ID: 7, Email: "ann@example.com"}

	token, err := GenerateToken(user, -time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func newAuthedRequest(t *testing.T, user *models.User) *http.Request {
	t.Helper()
	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthLoadsFreshUser(t *testing.T) {
	st := store.NewMemory()
	user := &models.User{Name: "Ann", Email: "ann@example.com", Role: models.RoleStaff, Status: models.StatusPending}
	require.NoError(t, st.CreateUser(context.Background(), user))

	req := newAuthedRequest(t, user)

	// Status changes after the token was issued; the middleware must see
	// the stored state, not the claims.
	user.Status = models.StatusApproved
	require.NoError(t, st.SaveUser(context.Background(), user))

	var got *models.User
	handler := Auth(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	st := store.NewMemory()
	handler := Auth(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsDeletedUser(t *testing.T) {
	st := store.NewMemory()
	// The token references a user the store does not know.
	req := newAuthedRequest(t, &models.User{ID: 99, Email: "ghost@example.com"})

	handler := Auth(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != nil {
			ctx := context.WithValue(req.Context(), UserContextKey, user)
			req = req.WithContext(ctx)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(&models.User{Role: models.RoleOwner}).Code)
	assert.Equal(t, http.StatusForbidden, serve(&models.User{Role: models.RoleStaff}).Code)
	assert.Equal(t, http.StatusForbidden, serve(&models.User{Role: models.RoleUnset}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(nil).Code)
}
