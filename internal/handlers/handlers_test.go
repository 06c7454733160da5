package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/attestation/backend/internal/config"
	"github.com/attestation/backend/internal/middleware"
	"github.com/attestation/backend/internal/models"
	"github.com/attestation/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var paris = time.FixedZone("CET", 3600)

// 14:30 in Paris
var fixedNow = time.Date(2021, 3, 5, 13, 30, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	redis  *miniredis.Miniredis
	audit  *services.AuditService
}

func newTestServer(t *testing.T, templates services.TemplateSource) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.Migrate(db))

	cfg := &config.Config{
		Timezone:             "UTC",
		QRSize:               256,
		SessionSecret:        "test-secret",
		SessionTTL:           time.Hour,
		ProfileTTL:           time.Hour,
		GenerationDailyLimit: 100,
	}

	layout := services.MustLayout()
	if templates == nil {
		templates = services.NewBlankTemplateSource(layout)
	}
	now := func() time.Time { return fixedNow }

	certificateService := services.NewCertificateService(templates, services.NewQRService(cfg), services.NewStamper(layout), paris)
	profileStore := services.NewProfileStore(rdb, cfg.ProfileTTL)
	auditService := services.NewAuditService(db)
	sessions := NewSessionManager(cfg, now)

	certificateHandler := NewCertificateHandler(certificateService, profileStore, auditService, sessions, now)
	profileHandler := NewProfileHandler(profileStore, sessions, paris, now)
	publicHandler := NewPublicHandler(auditService)

	router := gin.New()
	router.GET("/health", publicHandler.Health)
	api := router.Group("/api/v1")
	api.GET("/form", profileHandler.GetForm)
	api.DELETE("/profile", profileHandler.DeleteProfile)
	api.POST("/certificates", middleware.GenerationLimit(rdb, cfg, now), certificateHandler.Generate)
	api.GET("/stats/reasons", publicHandler.GetReasonStats)

	return &testServer{router: router, redis: mr, audit: auditService}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) profileKeys() []string {
	var keys []string
	for _, k := range s.redis.Keys() {
		if strings.HasPrefix(k, "profile:") {
			keys = append(keys, k)
		}
	}
	return keys
}

func sessionCookieFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	return nil
}

func validRequest() models.FormInput {
	return models.FormInput{
		FirstName:     "Jean",
		LastName:      "Dupont",
		Birthday:      "01/01/1980",
		LieuNaissance: "Paris",
		Address:       "1 Rue A",
		ZipCode:       "75001",
		Town:          "Paris",
		DateSortie:    "2021-03-05",
		HeureSortie:   "14:30",
		Reason:        "travail",
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestGenerateCertificate(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/certificates", validRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attestation-2021-03-05_14-30.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Empty(t, w.Header().Get("X-Certificate-Warning"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	assert.Nil(t, sessionCookieFrom(w))
	assert.Empty(t, s.profileKeys())

	counts, err := s.audit.CountByReason()
	require.NoError(t, err)
	assert.Equal(t, "travail", counts[0].Reason)
	assert.Equal(t, int64(1), counts[0].Total)
}

func TestGenerateCertificateReasonMissing(t *testing.T) {
	s := newTestServer(t, nil)

	req := validRequest()
	req.Reason = ""
	req.ZipCode = ""

	w := s.do(t, http.MethodPost, "/api/v1/certificates", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "reason_missing", decode(t, w)["error"])
}

func TestGenerateCertificateInvalidFields(t *testing.T) {
	s := newTestServer(t, nil)

	req := validRequest()
	req.FirstName = ""
	req.ZipCode = "7500"
	req.Persist = true

	w := s.do(t, http.MethodPost, "/api/v1/certificates", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, "validation_failed", body["error"])
	assert.Equal(t, []any{"firstname", "zipcode"}, body["invalid_fields"])
	assert.Empty(t, s.profileKeys())
}

func TestGenerateCertificateMalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/certificates", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateCertificateLongTown(t *testing.T) {
	s := newTestServer(t, nil)

	req := validRequest()
	req.Town = "Saint-Remy-en-Bouzemont-Saint-Genest-et-Isson-sur-la-Grande-Riviere"

	w := s.do(t, http.MethodPost, "/api/v1/certificates", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "font_fit; field=town; size=7", w.Header().Get("X-Certificate-Warning"))
	assert.NotEmpty(t, w.Header().Get("X-Certificate-Warning-Message"))
}

func TestGenerateCertificateTemplateMissing(t *testing.T) {
	s := newTestServer(t, &services.FileTemplateSource{Path: t.TempDir() + "/missing.pdf"})

	w := s.do(t, http.MethodPost, "/api/v1/certificates", validRequest())
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Equal(t, "render_failed", body["error"])
	assert.Equal(t, "template", body["stage"])
}

func TestPersistAndPrefill(t *testing.T) {
	s := newTestServer(t, nil)

	req := validRequest()
	req.Reason = "sante"
	req.Persist = true

	w := s.do(t, http.MethodPost, "/api/v1/certificates", req)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookieFrom(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	require.Len(t, s.profileKeys(), 1)

	w = s.do(t, http.MethodGet, "/api/v1/form", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Form    models.FormInput `json:"form"`
		Stored  bool             `json:"stored"`
		Reasons []string         `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Stored)
	assert.Equal(t, "Jean", resp.Form.FirstName)
	assert.Equal(t, "75001", resp.Form.ZipCode)
	assert.Equal(t, "sante", resp.Form.Reason)
	assert.Equal(t, "2021-03-05", resp.Form.DateSortie)
	assert.Equal(t, "14:30", resp.Form.HeureSortie)
	assert.Len(t, resp.Reasons, len(models.Reasons))

	// A second persisted generation reuses the same slot
	req.Town = "Lyon"
	w = s.do(t, http.MethodPost, "/api/v1/certificates", req, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.profileKeys(), 1)

	w = s.do(t, http.MethodGet, "/api/v1/form", nil, cookie)
	assert.Contains(t, w.Body.String(), `"town":"Lyon"`)
}

func TestPrefillWithoutSession(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/form", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	form := body["form"].(map[string]any)
	assert.Equal(t, false, body["stored"])
	assert.Equal(t, "", form["firstname"])
	assert.Equal(t, "", form["reason"])
	assert.Equal(t, "2021-03-05", form["datesortie"])
	assert.Equal(t, "14:30", form["heuresortie"])
}

func TestPrefillStaleSession(t *testing.T) {
	s := newTestServer(t, nil)

	req := validRequest()
	req.Persist = true
	w := s.do(t, http.MethodPost, "/api/v1/certificates", req)
	cookie := sessionCookieFrom(w)
	require.NotNil(t, cookie)

	s.redis.FlushAll()

	w = s.do(t, http.MethodGet, "/api/v1/form", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["stored"])

	cleared := sessionCookieFrom(w)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
}

func TestPrefillForgedCookie(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/form", nil, &http.Cookie{Name: sessionCookie, Value: "not-a-token"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["stored"])
}

func TestDeleteProfile(t *testing.T) {
	s := newTestServer(t, nil)

	req := validRequest()
	req.Persist = true
	w := s.do(t, http.MethodPost, "/api/v1/certificates", req)
	cookie := sessionCookieFrom(w)
	require.NotNil(t, cookie)
	require.Len(t, s.profileKeys(), 1)

	w = s.do(t, http.MethodDelete, "/api/v1/profile", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.profileKeys())

	cleared := sessionCookieFrom(w)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)

	w = s.do(t, http.MethodGet, "/api/v1/form", nil, cookie)
	assert.Equal(t, false, decode(t, w)["stored"])
}

func TestReasonStats(t *testing.T) {
	s := newTestServer(t, nil)

	for _, reason := range []string{"travail", "animaux", "animaux"} {
		req := validRequest()
		req.Reason = reason
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/certificates", req).Code)
	}

	w := s.do(t, http.MethodGet, "/api/v1/stats/reasons", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reasons []services.ReasonCount `json:"reasons"`
		Total   int64                  `json:"total"`
		Enabled bool                   `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Enabled)
	assert.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.Reasons, len(models.Reasons))
	assert.Equal(t, services.ReasonCount{Reason: "animaux", Total: 2}, resp.Reasons[7])
}

func TestReasonStatsWithoutAudit(t *testing.T) {
	router := gin.New()
	router.GET("/stats", NewPublicHandler(services.NewAuditService(nil)).GetReasonStats)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":false`)
	assert.Contains(t, w.Body.String(), `"total":0`)
}

func TestSessionManagerUsesInjectedClock(t *testing.T) {
	clock := fixedNow
	sessions := NewSessionManager(&config.Config{SessionSecret: "test-secret", SessionTTL: time.Hour}, func() time.Time { return clock })
	handle, err := services.NewStoreHandle()
	require.NoError(t, err)

	issue := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(issue)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sessions.Issue(c, handle))
	cookie := sessionCookieFrom(issue)
	require.NotNil(t, cookie)

	read := func() (services.StoreHandle, bool) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(cookie)
		return sessions.Handle(c)
	}

	clock = fixedNow.Add(30 * time.Minute)
	got, ok := read()
	require.True(t, ok)
	assert.Equal(t, handle, got)

	clock = fixedNow.Add(2 * time.Hour)
	_, ok = read()
	assert.False(t, ok)
}
