package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/application"
	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/cache"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/persistence/memory"
	"github.com/alphinepj/Clam-Companion/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProvider struct {
	name string
	fail bool
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(_ context.Context, req domain.GenerateRequest) (*domain.GenerateResult, error) {
	if p.fail {
		return nil, domain.NewProviderError(p.name, errors.New("upstream unavailable"))
	}
	return &domain.GenerateResult{Text: "reply to: " + req.Message, Tone: req.Tone}, nil
}

type testEnv struct {
	router *gin.Engine
}

func newEnv(t *testing.T, providers ...domain.Provider) *testEnv {
	t.Helper()
	if providers == nil {
		providers = []domain.Provider{&fakeProvider{name: "openai"}, &fakeProvider{name: "gemini"}}
	}

	logger := logging.NewNopLogger()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	convs := memory.NewConversationRepository(store)

	orch := application.NewOrchestrator(providers, 0, logger)
	tokens := application.NewTokenService("test-secret", 1)
	chatSvc := application.NewChatService(convs, users, orch, cache.NewMemoryStore(),
		config.CacheConfig{}, config.ChatConfig{}, logger)
	authSvc := application.NewAuthService(users, tokens, orch,
		config.AuthConfig{BcryptCost: 4}, "openai", logger)

	router := NewRouter(
		NewAuthHandler(authSvc, logger),
		NewChatHandler(chatSvc, logger),
		NewSettingsHandler(authSvc, logger),
		tokens,
		nil,
		logger,
	)
	return &testEnv{router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAuthFlow(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "User@Example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode(t, w)
	assert.NotEmpty(t, registered["token"])
	user := registered["user"].(map[string]any)
	assert.Equal(t, "user@example.com", user["email"])

	// Duplicate registration is a conflict.
	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "user@example.com",
		"password": "password456",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EMAIL_TAKEN", decode(t, w)["code"])

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "user@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "user@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, w)["code"])

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "user@example.com", me["email"])
	assert.NotNil(t, me["lastLoginAt"])

	w = env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv(t)

	// Binding failure: password missing entirely.
	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	// Service-level failure: email without an @.
	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "not-an-email",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "email", body["details"].(map[string]any)["field"])
}

func TestChatScenario(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message": "I am feeling stressed today",
		"goal":    "stress-relief",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)

	conversationID := first["conversationId"].(string)
	assert.NotEmpty(t, conversationID)
	assert.NotEmpty(t, first["messageId"])
	assert.NotEmpty(t, first["timestamp"])
	assert.Equal(t, "openai", first["aiProvider"])
	assert.Equal(t, "anxious", first["tone"])

	w = env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message":        "Thank you, that helped",
		"goal":           "stress-relief",
		"conversationId": conversationID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode(t, w)
	assert.Equal(t, conversationID, second["conversationId"])

	w = env.do(t, http.MethodGet, "/api/v1/chat/"+conversationID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode(t, w)["conversation"].(map[string]any)
	assert.Equal(t, "stress-relief", conv["goal"])
	assert.Len(t, conv["messages"], 4)
}

func TestChatRequiresAuth(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/chat", "", gin.H{
		"message": "hello",
		"goal":    "stress-relief",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestChatValidationErrors(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	// Binding: message absent.
	w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{"goal": "stress-relief"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	// Service: message over the length bound.
	w = env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message": strings.Repeat("a", 1001),
		"goal":    "stress-relief",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "message", body["details"].(map[string]any)["field"])

	// Malformed conversation id fails before any lookup.
	w = env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message":        "hello",
		"goal":           "stress-relief",
		"conversationId": "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w)["code"])

	// Well-formed but unknown id.
	w = env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message":        "hello",
		"goal":           "stress-relief",
		"conversationId": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	notFound := decode(t, w)
	assert.Equal(t, "CONVERSATION_NOT_FOUND", notFound["code"])
	assert.Equal(t, "Conversation not found", notFound["error"])
}

func TestChatFallback(t *testing.T) {
	env := newEnv(t, &fakeProvider{name: "openai", fail: true}, &fakeProvider{name: "gemini", fail: true})
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message": "hello",
		"goal":    "polite-greetings",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "none", body["aiProvider"])
	assert.Equal(t, application.FallbackText, body["response"])
}

func TestCacheReflectsNewMessages(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message": "first",
		"goal":    "stress-relief",
	})
	require.Equal(t, http.StatusOK, w.Code)
	conversationID := decode(t, w)["conversationId"].(string)

	// Prime the cache.
	w = env.do(t, http.MethodGet, "/api/v1/chat/"+conversationID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["conversation"].(map[string]any)["messages"], 2)

	w = env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message":        "second",
		"goal":           "stress-relief",
		"conversationId": conversationID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The read after the mutation must not serve the stale payload.
	w = env.do(t, http.MethodGet, "/api/v1/chat/"+conversationID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["conversation"].(map[string]any)["messages"], 4)
}

func TestOwnershipIsolation(t *testing.T) {
	env := newEnv(t)
	ownerToken := env.register(t, "owner@example.com")
	otherToken := env.register(t, "other@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/chat", ownerToken, gin.H{
		"message": "private",
		"goal":    "emotional-support",
	})
	require.Equal(t, http.StatusOK, w.Code)
	conversationID := decode(t, w)["conversationId"].(string)

	w = env.do(t, http.MethodGet, "/api/v1/chat/"+conversationID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CONVERSATION_NOT_FOUND", decode(t, w)["code"])

	w = env.do(t, http.MethodDelete, "/api/v1/chat/"+conversationID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The owner still sees it.
	w = env.do(t, http.MethodGet, "/api/v1/chat/"+conversationID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListConversations(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	ids := make([]string, 0, 25)
	for i := range 25 {
		w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
			"message": fmt.Sprintf("message %d", i),
			"goal":    "stress-relief",
		})
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, decode(t, w)["conversationId"].(string))
	}

	w := env.do(t, http.MethodGet, "/api/v1/chat?page=2&limit=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	conversations := body["conversations"].([]any)
	require.Len(t, conversations, 10)
	newestOnPage := conversations[0].(map[string]any)
	assert.Equal(t, ids[14], newestOnPage["id"])
	assert.Equal(t, float64(2), newestOnPage["messageCount"])
	assert.NotNil(t, newestOnPage["lastMessage"])

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(25), pagination["total"])
	assert.Equal(t, float64(3), pagination["totalPages"])
	assert.Equal(t, true, pagination["hasNext"])
	assert.Equal(t, true, pagination["hasPrev"])

	// Defaults: page 1, limit 10.
	w = env.do(t, http.MethodGet, "/api/v1/chat", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pagination = decode(t, w)["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, false, pagination["hasPrev"])

	w = env.do(t, http.MethodGet, "/api/v1/chat?page=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = env.do(t, http.MethodGet, "/api/v1/chat?limit=51", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
}

func TestDeleteConversation(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
		"message": "to be deleted",
		"goal":    "stress-relief",
	})
	require.Equal(t, http.StatusOK, w.Code)
	conversationID := decode(t, w)["conversationId"].(string)

	w = env.do(t, http.MethodDelete, "/api/v1/chat/"+conversationID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Conversation deleted successfully", body["message"])
	assert.Equal(t, conversationID, body["conversationId"])

	w = env.do(t, http.MethodDelete, "/api/v1/chat/"+conversationID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/chat/"+conversationID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	for _, goal := range []string{"stress-relief", "stress-relief", "emotional-support"} {
		w := env.do(t, http.MethodPost, "/api/v1/chat", token, gin.H{
			"message": "hi",
			"goal":    goal,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/v1/chat/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["totalConversations"])
	assert.Equal(t, "stress-relief", body["favoriteGoal"])
}

func TestSettings(t *testing.T) {
	env := newEnv(t)
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodGet, "/api/v1/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "openai", body["aiProvider"])
	assert.Equal(t, false, body["voiceEnabled"])

	// Partial update: only the voice flag.
	w = env.do(t, http.MethodPut, "/api/v1/settings", token, gin.H{"voiceEnabled": true})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "openai", body["aiProvider"])
	assert.Equal(t, true, body["voiceEnabled"])

	w = env.do(t, http.MethodPut, "/api/v1/settings", token, gin.H{"aiProvider": "mistral"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = env.do(t, http.MethodPut, "/api/v1/settings", token, gin.H{"aiProvider": "gemini"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "gemini", body["aiProvider"])
	assert.Equal(t, true, body["voiceEnabled"])
}
