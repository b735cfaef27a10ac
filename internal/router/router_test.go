package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/models"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/testutil"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/ws"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingMailer struct {
	mu     sync.Mutex
	bodies map[string][]string
}

func (m *recordingMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bodies == nil {
		m.bodies = map[string][]string{}
	}
	m.bodies[to] = append(m.bodies[to], body)
	return nil
}

func (m *recordingMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := m.bodies[to]
	for i := len(sent) - 1; i >= 0; i-- {
		if _, rest, ok := strings.Cut(sent[i], "code is: "); ok {
			code, _, _ := strings.Cut(rest, "\n")
			return code
		}
	}
	return ""
}

type harness struct {
	t    *testing.T
	db   *gorm.DB
	cfg  *config.Config
	app  *App
	mail *recordingMailer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testutil.Config()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	mail := &recordingMailer{}
	app := Setup(Deps{
		Config:  cfg,
		DB:      db,
		Store:   store,
		Mailer:  mail,
		Hub:     ws.NewHub(),
		Logger:  zap.NewNop(),
		Version: "test",
	})
	t.Cleanup(app.Close)
	return &harness{t: t, db: db, cfg: cfg, app: app, mail: mail}
}

func (h *harness) token(u *models.User) string {
	tok, err := auth.GenerateAccessToken(&h.cfg.JWT, u.ID, u.Email, u.Role, u.WardID)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.serve(req, token)
}

func (h *harness) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.app.Engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func id(v interface{}) uint {
	return uint(v.(float64))
}

func TestHealthAndPublicConfig(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = h.do(http.MethodGet, "/api/config/public", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	reg := map[string]string{"email": "ravi@example.com", "full_name": "Ravi Kumar", "password": "secret-pass"}
	w := h.do(http.MethodPost, "/api/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, domain.RoleCitizen, body["user"].(map[string]interface{})["role"])

	w = h.do(http.MethodPost, "/api/auth/register", "", reg)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ravi@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ravi@example.com", "password": "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["access_token"].(string)

	w = h.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ravi@example.com", decode(t, w)["email"])

	w = h.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var audits int64
	require.NoError(t, h.db.Model(&models.AuditLog{}).Count(&audits).Error)
	assert.GreaterOrEqual(t, audits, int64(3), "register, failed login, login and logout are audited")
}

func TestAuthRequiredAndDeactivatedAccounts(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/complaints", "", nil).Code)

	u := testutil.CreateUser(t, h.db, domain.RoleCitizen, nil)
	token := h.token(u)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/complaints", token, nil).Code)

	require.NoError(t, h.db.Model(u).Update("is_active", false).Error)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/complaints", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/ws?token="+token, "", nil).Code,
		"deactivated accounts cannot open the notification socket")
}

func TestAdminOnlyRoutes(t *testing.T) {
	h := newHarness(t)
	citizen := h.token(testutil.CreateUser(t, h.db, domain.RoleCitizen, nil))
	admin := h.token(testutil.CreateUser(t, h.db, domain.RoleAdministrator, nil))

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/wards", citizen, map[string]string{"name": "Ward X"}).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/users", citizen, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/reports/export", citizen, nil).Code)

	w := h.do(http.MethodPost, "/api/wards", admin, map[string]string{"name": "Ward X"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/wards", admin, map[string]string{"name": "Ward X"}).Code)

	w = h.do(http.MethodPut, "/api/config/APP_NAME", admin, map[string]string{"value": "City CMS", "type": "string"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodGet, "/api/config/public", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "City CMS", decode(t, w)["data"].(map[string]interface{})["APP_NAME"])
}

func TestWardBoundariesAndDetection(t *testing.T) {
	h := newHarness(t)
	admin := h.token(testutil.CreateUser(t, h.db, domain.RoleAdministrator, nil))

	w := h.do(http.MethodPost, "/api/wards", admin, map[string]string{"name": "Fort Kochi"})
	require.Equal(t, http.StatusCreated, w.Code)
	wardID := id(decode(t, w)["id"])

	square := [][]float64{{10, 76}, {10, 77}, {11, 77}, {11, 76}}
	w = h.do(http.MethodPut, fmt.Sprintf("/api/wards/%d/boundaries", wardID), admin, map[string]interface{}{"boundaries": square})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPut, fmt.Sprintf("/api/wards/%d/boundaries", wardID), admin,
		map[string]interface{}{"boundaries": [][]float64{{10, 76}, {10, 77}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/wards/detect-area", "", map[string]float64{"lat": 10.5, "lng": 76.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decode(t, w)
	assert.Equal(t, true, m["exact"])
	assert.Equal(t, wardID, id(m["ward"].(map[string]interface{})["id"]))

	w = h.do(http.MethodPost, "/api/wards/detect-area", "", map[string]float64{"lat": -40, "lng": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComplaintLifecycle(t *testing.T) {
	h := newHarness(t)
	adminUser := testutil.CreateUser(t, h.db, domain.RoleAdministrator, nil)
	admin := h.token(adminUser)

	w := h.do(http.MethodPost, "/api/wards", admin, map[string]string{"name": "Ward 5"})
	require.Equal(t, http.StatusCreated, w.Code)
	wardID := id(decode(t, w)["id"])

	w = h.do(http.MethodPost, "/api/complaint-types", admin, map[string]interface{}{"name": "Streetlight", "sla_hours": 24, "priority": "HIGH"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	typeID := id(decode(t, w)["id"])

	officerUser := testutil.CreateUser(t, h.db, domain.RoleWardOfficer, &wardID)
	crewUser := testutil.CreateUser(t, h.db, domain.RoleMaintenanceTeam, &wardID)
	citizenUser := testutil.CreateUser(t, h.db, domain.RoleCitizen, nil)
	officer, crew, citizen := h.token(officerUser), h.token(crewUser), h.token(citizenUser)

	w = h.do(http.MethodPost, "/api/complaints", citizen, map[string]interface{}{
		"description": "Streetlight near the bus stop is out", "complaint_type_id": typeID, "ward_id": wardID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	cid := id(created["id"])
	assert.Equal(t, domain.StatusRegistered, created["status"])
	assert.Equal(t, domain.PriorityHigh, created["priority"])
	assert.True(t, strings.HasPrefix(created["complaint_id"].(string), "KSC"))
	base := fmt.Sprintf("/api/complaints/%d", cid)

	w = h.do(http.MethodGet, "/api/users/maintenance", officer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, base+"/assign", citizen, map[string]uint{"assigned_to_id": crewUser.ID}).Code)
	w = h.do(http.MethodPut, base+"/assign", officer, map[string]uint{"assigned_to_id": crewUser.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.StatusAssigned, decode(t, w)["status"])

	w = h.do(http.MethodPost, base+"/feedback", citizen, map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code, "feedback before resolution")

	for _, st := range []string{domain.StatusInProgress, domain.StatusResolved} {
		w = h.do(http.MethodPut, base+"/status", crew, map[string]string{"status": st, "comment": "work update"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, st, decode(t, w)["status"])
	}

	w = h.do(http.MethodPost, base+"/feedback", citizen, map[string]interface{}{"rating": 5, "feedback": "Fixed quickly"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 5, decode(t, w)["rating"])

	w = h.do(http.MethodPut, base+"/status", citizen, map[string]string{"status": domain.StatusClosed})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPut, base+"/status", admin, map[string]string{"status": domain.StatusInProgress})
	assert.Equal(t, http.StatusConflict, w.Code, "CLOSED cannot go to IN_PROGRESS")

	w = h.do(http.MethodGet, base+"/status-logs", citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, len(decode(t, w)["data"].([]interface{})), 5)

	w = h.do(http.MethodGet, "/api/notifications/unread-count", citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, decode(t, w)["unread"].(float64), float64(0))

	other := h.token(testutil.CreateUser(t, h.db, domain.RoleCitizen, nil))
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, base, other, nil).Code)

	w = h.do(http.MethodGet, "/api/complaints?status=CLOSED", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = h.do(http.MethodGet, "/api/reports/dashboard", officer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/reports/export?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Complaint ID"))

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/reports/export?format=docx", admin, nil).Code)
}

func multipartFile(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAttachments(t *testing.T) {
	h := newHarness(t)
	ward := testutil.CreateWard(t, h.db, "Ward A", nil)
	typ := testutil.CreateComplaintType(t, h.db, "Drainage", 48)
	citizenUser := testutil.CreateUser(t, h.db, domain.RoleCitizen, nil)
	c := testutil.CreateComplaint(t, h.db, typ, ward, citizenUser, domain.StatusRegistered)
	citizen := h.token(citizenUser)
	base := fmt.Sprintf("/api/complaints/%d/attachments", c.ID)

	png := []byte("\x89PNG\r\n\x1a\nfake-image-bytes")
	body, ct := multipartFile(t, "photo.png", "image/png", png)
	req := httptest.NewRequest(http.MethodPost, base, body)
	req.Header.Set("Content-Type", ct)
	w := h.serve(req, citizen)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileID := id(decode(t, w)["id"])
	assert.Equal(t, fmt.Sprintf("%s/%d", base, fileID), decode(t, w)["url"])

	var stored models.Attachment
	require.NoError(t, h.db.First(&stored, fileID).Error)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, fmt.Sprintf("%s/%d", base, fileID), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/uploads/"+stored.StorageKey, "", nil).Code,
		"stored files are not served without authorisation")

	body, ct = multipartFile(t, "notes.txt", "text/plain", []byte("hello"))
	req = httptest.NewRequest(http.MethodPost, base, body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, h.serve(req, citizen).Code)

	body, ct = multipartFile(t, "photo.jpg", "image/jpeg", []byte("<html><body>not a photo</body></html>"))
	req = httptest.NewRequest(http.MethodPost, base, body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, h.serve(req, citizen).Code)

	w = h.do(http.MethodGet, base, citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = h.do(http.MethodGet, fmt.Sprintf("%s/%d", base, fileID), citizen, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	other := h.token(testutil.CreateUser(t, h.db, domain.RoleCitizen, nil))
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, fileID), other, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, fileID), citizen, nil).Code)
}

func TestGuestSubmissionAndTracking(t *testing.T) {
	h := newHarness(t)
	ward := testutil.CreateWard(t, h.db, "Ward G", nil)
	typ := testutil.CreateComplaintType(t, h.db, "Garbage", 48)

	w := h.do(http.MethodGet, "/api/guest/complaint-types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = h.do(http.MethodPost, "/api/guest/complaint", "", map[string]interface{}{
		"description":       "Garbage not collected",
		"complaint_type_id": typ.ID,
		"ward_id":           ward.ID,
		"contact_name":      "Meera",
		"contact_email":     "meera@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	complaint := decode(t, w)["complaint"].(map[string]interface{})
	code := complaint["complaint_id"].(string)

	w = h.do(http.MethodGet, "/api/guest/track/"+code, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusRegistered, decode(t, w)["status"])
	assert.NotContains(t, w.Body.String(), "meera@example.com")

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/guest/track/NOPE0000", "", nil).Code)

	w = h.do(http.MethodPost, "/api/guest/track/request-otp", "", map[string]string{"complaint_id": code, "email": "someone@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code, "mismatched email looks like a missing complaint")

	otp := h.mail.code("meera@example.com")
	require.NotEmpty(t, otp)
	w = h.do(http.MethodPost, "/api/guest/verify-otp", "", map[string]string{"email": "meera@example.com", "code": otp})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decode(t, w)
	assert.NotEmpty(t, v["access_token"])
	assert.Equal(t, true, v["new_account"])

	w = h.do(http.MethodGet, "/api/complaints", v["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}
