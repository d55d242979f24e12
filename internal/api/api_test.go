package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/contacts"
	"whatsapp-gateway/internal/conversation"
	"whatsapp-gateway/internal/database"
	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/outbound"
	"whatsapp-gateway/internal/status"
	"whatsapp-gateway/internal/store"
	"whatsapp-gateway/internal/whatsapp"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-secret"

type stubSender struct {
	err error
}

func (s *stubSender) SendText(ctx context.Context, to, body string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "wamid." + to + "." + body, nil
}

func (s *stubSender) SendFlow(ctx context.Context, to string, flow whatsapp.Flow) (string, error) {
	return "wamid.flow." + flow.ID, s.err
}

type testServer struct {
	router   *gin.Engine
	conv     *conversation.Store
	sessions *auth.Sessions
	repos    *store.Repositories
	sender   *stubSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	repos := store.New(db)

	auditLog := audit.New(repos.Logs, 0)
	dir := contacts.NewDirectory(repos.Contacts)
	conv := conversation.NewStore(repos.Messages, dir)
	sender := &stubSender{}
	out := outbound.NewService(sender, conv, auditLog, time.Second)
	tracker := status.NewTracker(repos.Statuses, repos.Messages, auditLog)
	sessions := auth.NewSessions(repos.Sessions, time.Hour)
	resolver := auth.NewResolver(testSecret, "HS256", "", sessions)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Auth:          NewAuthHandler(sessions, "session_id"),
		Conversations: NewConversationHandler(conv),
		Contacts:      NewContactHandler(dir),
		Groups:        NewGroupHandler(contacts.NewGroups(repos.Groups)),
		Send:          NewSendHandler(out, whatsapp.Flow{CTA: "Open"}, "acme"),
		Dashboard:     NewDashboardHandler(conv, tracker, auditLog, repos.Stats),
	}, resolver, "session_id")

	return &testServer{router: router, conv: conv, sessions: sessions, repos: repos, sender: sender}
}

func token(t *testing.T, tenant string) string {
	t.Helper()
	signed, _, err := auth.GenerateToken(testSecret, "HS256", auth.TokenSpec{TenantID: tenant, UserID: "u-" + tenant, TTL: time.Hour})
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, tenant, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if tenant != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, tenant))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seed(t *testing.T, tenant, phone, id, body string, at time.Time) {
	t.Helper()
	_, err := s.conv.Append(context.Background(), &models.Message{
		TenantID: tenant, Phone: phone, ProviderMessageID: &id, ContactName: "Name " + phone,
		Direction: models.DirectionInbound, Type: models.TypeText, Body: body, Timestamp: at,
	})
	require.NoError(t, err)
}

func TestRequiresCredentials(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/conversations", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConversationsAreTenantScoped(t *testing.T) {
	s := newTestServer(t)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.seed(t, "acme", "111", "a1", "first", base)
	s.seed(t, "acme", "111", "a2", "second", base.Add(time.Minute))
	s.seed(t, "acme", "222", "a3", "other", base.Add(2*time.Minute))
	s.seed(t, "globex", "999", "g1", "secret", base)

	w := s.do(t, http.MethodGet, "/api/conversations", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Conversations []pkgmodels.ConversationSummary `json:"conversations"`
		Count         int                             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "222", list.Conversations[0].Phone)
	assert.Equal(t, "111", list.Conversations[1].Phone)
	assert.EqualValues(t, 2, list.Conversations[1].MessageCount)
	assert.Equal(t, "Name 111", list.Conversations[1].Name)

	w = s.do(t, http.MethodGet, "/api/conversations/999", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = s.do(t, http.MethodGet, "/api/conversations/111?limit=1", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var thread struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &thread))
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, "second", thread.Messages[0].Body)

	w = s.do(t, http.MethodDelete, "/api/conversations/111", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":2`)

	w = s.do(t, http.MethodGet, "/api/conversations", "globex", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "999", list.Conversations[0].Phone)
}

func TestSendText(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/send/text", "acme", `{"to":"111","text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"message_id":"wamid.111.hello"}`, w.Body.String())

	thread, err := s.conv.Thread(context.Background(), "acme", "111", 0)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, models.DirectionOutbound, thread[0].Direction)

	w = s.do(t, http.MethodPost, "/api/send/text", "acme", `{"to":"111"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.sender.err = errors.New("provider down")
	w = s.do(t, http.MethodPost, "/api/send/text", "acme", `{"to":"111","text":"again"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSendFlow(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/send/flow", "acme", `{"to":"111","flow_id":"f1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wamid.flow.f1")
}

func TestContactsCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/contacts", "acme", `{"phone":"111","name":"Alice","labels":["vip"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/contacts", "acme", `{"phone":"111"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, "/api/contacts/111", "acme", `{"notes":"called"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "called", updated.Notes)
	assert.Equal(t, []string{"vip"}, []string(updated.Labels))

	w = s.do(t, http.MethodGet, "/api/contacts/111", "globex", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/contacts?search=ali", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/api/contacts/export", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "111,Alice,vip,"))

	w = s.do(t, http.MethodDelete, "/api/contacts/111", "acme", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/contacts/111", "acme", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogsStatsAndStatuses(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/send/text", "acme", `{"to":"111","text":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/logs?type=message", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = s.do(t, http.MethodGet, "/api/logs?type=bogus", "acme", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/stats", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats pkgmodels.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.Messages)
	assert.EqualValues(t, 1, stats.Outbound)
	assert.EqualValues(t, 1, stats.Conversations)

	w = s.do(t, http.MethodGet, "/api/statuses", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = s.do(t, http.MethodGet, "/api/messages?limit=5", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestSessionLogin(t *testing.T) {
	s := newTestServer(t)
	_, err := s.sessions.CreateUser(context.Background(), "admin", "pw")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"admin","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenant_id":"default"`)
	assert.Contains(t, w.Body.String(), `"mode":"session"`)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendAttributionWarnsOncePerTenant(t *testing.T) {
	h := NewSendHandler(nil, whatsapp.Flow{}, "acme")
	assert.False(t, h.unattributed("acme"))
	assert.True(t, h.unattributed("globex"))
	assert.False(t, h.unattributed("globex"))

	unmapped := NewSendHandler(nil, whatsapp.Flow{}, "")
	assert.False(t, unmapped.unattributed("globex"))
}

func TestGroupsCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/groups", "acme", `{"group_id":"g1","name":"Team","participants":["1","2"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"is_active":true`)

	w = s.do(t, http.MethodPost, "/api/groups", "acme", `{"group_id":"g1","name":"Team"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(t, http.MethodPost, "/api/groups", "acme", `{"group_id":"g2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/groups/g1", "globex", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/groups/g1", "acme", `{"is_active":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	var groups []models.Group
	w = s.do(t, http.MethodGet, "/api/groups", "acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	assert.Empty(t, groups)

	w = s.do(t, http.MethodGet, "/api/groups?active_only=false", "acme", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"1", "2"}, []string(groups[0].Participants))

	w = s.do(t, http.MethodGet, "/api/groups?active_only=maybe", "acme", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/groups/g1", "acme", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/groups/g1", "acme", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
