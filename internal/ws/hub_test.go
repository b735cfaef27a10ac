package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubSendToUser(t *testing.T) {
	hub := NewHub()
	a1 := NewClient(1, "CITIZEN", nil)
	a2 := NewClient(1, "CITIZEN", nil)
	b := NewClient(2, "CITIZEN", nil)
	for _, c := range []*Client{a1, a2, b} {
		hub.Register(c)
	}

	hub.SendToUser(1, Message{Type: "notification", Data: "hello"})
	assert.Len(t, a1.Send, 1)
	assert.Len(t, a2.Send, 1)
	assert.Len(t, b.Send, 0)

	a1.Close()
	a1.Close()
	assert.Equal(t, 2, hub.ClientCount())
	a2.Close()
	assert.Equal(t, 1, hub.ClientCount())

	hub.SendToUser(1, Message{Type: "notification"})
}

func TestHubSendToWardStaff(t *testing.T) {
	hub := NewHub()
	w1, w2 := uint(1), uint(2)
	officer1 := NewClient(10, "WARD_OFFICER", &w1)
	officer2 := NewClient(11, "WARD_OFFICER", &w2)
	admin := NewClient(12, "ADMINISTRATOR", nil)
	citizen := NewClient(13, "CITIZEN", nil)
	for _, c := range []*Client{officer1, officer2, admin, citizen} {
		hub.Register(c)
	}

	hub.SendToWardStaff(1, Message{Type: "complaint_created"}, "WARD_OFFICER", "ADMINISTRATOR")
	assert.Len(t, officer1.Send, 1)
	assert.Len(t, officer2.Send, 0)
	assert.Len(t, admin.Send, 1)
	assert.Len(t, citizen.Send, 0)
}

type accountMap map[uint]*models.User

func (m accountMap) GetByID(id uint) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func TestServeNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute}
	hub := NewHub()
	accounts := accountMap{42: {ID: 42, Role: "CITIZEN", IsActive: true}}
	r := gin.New()
	r.GET("/ws", ServeNotifications(cfg, accounts, hub, NewUpgrader(nil), zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := auth.GenerateAccessToken(cfg, 42, "a@b.c", "CITIZEN", nil)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + tok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.SendToUser(42, Message{Type: "notification", Data: map[string]string{"title": "Status updated"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "Status updated", msg.Data["title"])
}

func TestServeNotificationsChecksAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute}
	hub := NewHub()
	ward := uint(3)
	accounts := accountMap{
		7: {ID: 7, Role: "WARD_OFFICER", WardID: &ward, IsActive: false},
		8: {ID: 8, Role: "CITIZEN", IsActive: true},
	}
	r := gin.New()
	r.GET("/ws", ServeNotifications(cfg, accounts, hub, NewUpgrader(nil), zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	get := func(userID uint, role string) int {
		tok, err := auth.GenerateAccessToken(cfg, userID, "a@b.c", role, &ward)
		require.NoError(t, err)
		resp, err := http.Get(srv.URL + "/ws?token=" + tok)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusForbidden, get(7, "WARD_OFFICER"), "deactivated account")
	assert.Equal(t, http.StatusUnauthorized, get(99, "CITIZEN"), "deleted account")
	assert.Equal(t, 0, hub.ClientCount())

	// a token minted while the user was an officer no longer grants ward broadcasts
	tok, err := auth.GenerateAccessToken(cfg, 8, "a@b.c", "WARD_OFFICER", &ward)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.mu.RLock()
	var roles []string
	for c := range hub.clients {
		roles = append(roles, c.Role)
	}
	hub.mu.RUnlock()
	assert.Equal(t, []string{"CITIZEN"}, roles)
}
