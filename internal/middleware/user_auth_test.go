package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, userID primitive.ObjectID, secret string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID.Hex(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token failed: %v", err)
	}
	return token
}

func runMiddleware(handler gin.HandlerFunc, authorization string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest("GET", "/user", nil)
	if authorization != "" {
		c.Request.Header.Set("Authorization", authorization)
	}
	handler(c)
	return c, recorder
}

func TestUserAuthRejectsMissingToken(t *testing.T) {
	c, recorder := runMiddleware(UserAuth(testSecret), "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if !c.IsAborted() {
		t.Fatal("request must be aborted")
	}
}

func TestUserAuthRejectsWrongSecret(t *testing.T) {
	token := signedToken(t, primitive.NewObjectID(), "other-secret", time.Minute)
	_, recorder := runMiddleware(UserAuth(testSecret), "Bearer "+token)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestUserAuthRejectsExpiredToken(t *testing.T) {
	token := signedToken(t, primitive.NewObjectID(), testSecret, -time.Minute)
	_, recorder := runMiddleware(UserAuth(testSecret), "Bearer "+token)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestUserAuthInjectsUserID(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signedToken(t, userID, testSecret, time.Minute)

	c, recorder := runMiddleware(UserAuth(testSecret), "Bearer "+token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", recorder.Code)
	}

	got, ok := RequestUserID(c)
	if !ok || got != userID {
		t.Fatalf("expected userId %s in context, got %v", userID.Hex(), got)
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	c, recorder := runMiddleware(OptionalAuth(testSecret), "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("anonymous request must pass, got %d", recorder.Code)
	}
	if _, ok := RequestUserID(c); ok {
		t.Fatal("anonymous request must not carry a userId")
	}
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	c, recorder := runMiddleware(OptionalAuth(testSecret), "Bearer garbage")
	if recorder.Code != http.StatusOK {
		t.Fatalf("invalid token must degrade to anonymous, got %d", recorder.Code)
	}
	if _, ok := RequestUserID(c); ok {
		t.Fatal("invalid token must not carry a userId")
	}
}

func TestOptionalAuthInjectsValidUser(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signedToken(t, userID, testSecret, time.Minute)

	c, _ := runMiddleware(OptionalAuth(testSecret), "Bearer "+token)
	got, ok := RequestUserID(c)
	if !ok || got != userID {
		t.Fatalf("expected userId %s in context, got %v", userID.Hex(), got)
	}
}
