package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", "debt-planner", 15*time.Minute, time.Hour)
}

// TestAccessTokenRoundTrip проверяет выпуск и разбор access-токена.
func TestAccessTokenRoundTrip(t *testing.T) {
	manager := newTestManager()
	userID := uuid.New()

	issued, err := manager.NewAccessToken(userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := manager.ParseAccessToken(issued.Token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}

	if _, err := manager.ParseShareToken(issued.Token); err == nil {
		t.Fatal("expected access token to be rejected as share token")
	}
}

// TestShareTokenExpired проверяет отказ для просроченной ссылки.
func TestShareTokenExpired(t *testing.T) {
	manager := newTestManager()
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	issued, err := manager.NewShareToken(uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := manager.ParseShareToken(issued.Token); err == nil {
		t.Fatal("expected expired share token to be rejected")
	}
}

// TestShareTokenWrongSecret проверяет подпись токена.
func TestShareTokenWrongSecret(t *testing.T) {
	planID := uuid.New()
	issued, err := newTestManager().NewShareToken(planID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, err := newTestManager().ParseShareToken(issued.Token)
	if err != nil || got != planID {
		t.Fatalf("expected plan %s, got %s (err=%v)", planID, got, err)
	}

	other := NewTokenManager("other-secret", "debt-planner", time.Minute, time.Hour)
	if _, err := other.ParseShareToken(issued.Token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

// TestCompareTokenHash проверяет сравнение хэша токена.
func TestCompareTokenHash(t *testing.T) {
	hash := HashToken("token-value")
	if !CompareTokenHash(hash, "token-value") {
		t.Fatal("expected hash to match")
	}
	if CompareTokenHash(hash, "other") {
		t.Fatal("expected hash mismatch")
	}
}

// TestPasswordHash проверяет bcrypt-хэширование пароля.
func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected password mismatch")
	}
}

// TestOptionalJWTMiddleware проверяет анонимный и авторизованный доступ.
func TestOptionalJWTMiddleware(t *testing.T) {
	manager := newTestManager()
	e := echo.New()

	var seen uuid.UUID
	var authenticated bool
	handler := OptionalJWTMiddleware(manager)(func(c echo.Context) error {
		seen, authenticated = UserIDFromContext(c)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("expected anonymous request to pass, got %v", err)
	}
	if authenticated {
		t.Fatal("expected no user for anonymous request")
	}

	userID := uuid.New()
	issued, err := manager.NewAccessToken(userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("expected authenticated request to pass, got %v", err)
	}
	if !authenticated || seen != userID {
		t.Fatalf("expected user %s, got %s", userID, seen)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err == nil {
		t.Fatal("expected invalid token to be rejected")
	}
}
