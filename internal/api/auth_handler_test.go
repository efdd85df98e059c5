package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(email, password string) (string, error) {
	return f.token, f.err
}

func TestLogin_ReturnsToken(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{token: "signed.jwt.token"})

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"nurse@example.org","password":"secret"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"signed.jwt.token"}`, rec.Body.String())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{err: errors.New("invalid credentials")})

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"nurse@example.org","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
