package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories/postgres"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/services"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/testutil"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/utils"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

const (
	adminEmail    = "admin@piraquara.example.com"
	adminPassword = "admin-secret"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, mr := testutil.NewTestRedis(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, RedisClient: client})

	cfg := &config.Config{
		AppURL: "https://treinamentos.example.com",
		Session: config.SessionConfig{
			JWTSecret:  "handler-test-secret-0123456789abcdef",
			TTL:        time.Hour,
			CookieName: "token",
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	sm := services.NewServiceManager(db, repo, slogLogger, validator.New(),
		events.NewMockEventPublisher(slogLogger), services.NewServiceManagerConfig(cfg))
	require.NoError(t, sm.Initialize(context.Background()))
	require.NoError(t, sm.Auth().EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword))

	logger := utils.NewSlogLogger(slogLogger)
	router := gin.New()
	SetupMiddleware(router, logger, cfg)
	NewHandlerManager(sm, logger, cfg.Session).SetupRoutes(router, sm.HealthCheck)

	return &testServer{t: t, router: router, redis: mr}
}

func (s *testServer) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) *http.Cookie {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": password}, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			assert.True(s.t, c.HttpOnly)
			assert.Equal(s.t, http.SameSiteStrictMode, c.SameSite)
			return c
		}
	}
	s.t.Fatal("login did not set the session cookie")
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type idBody struct {
	ID uint `json:"id"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuth_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/courses", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.NotEmpty(t, body.Message)

	w = s.do(http.MethodGet, "/api/courses", nil, &http.Cookie{Name: "token", Value: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": adminEmail, "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MeAndBearerFallback(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), adminEmail)
	assert.NotContains(t, w.Body.String(), "password")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	w = s.do(http.MethodPost, "/api/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestStudentCannotReachAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodPost, "/api/users", gin.H{
		"name": "Ana Souza", "email": "ana@example.com", "password": "secret123",
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	student := s.login("ana@example.com", "secret123")

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/courses"},
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/admin/dashboard"},
		{http.MethodGet, "/api/quiz/response"},
		{http.MethodPost, "/api/videos/upload"},
	} {
		w := s.do(route.method, route.path, gin.H{}, student)
		assert.Equal(t, http.StatusForbidden, w.Code, route.path)
	}

	w = s.do(http.MethodGet, "/api/dashboard", nil, student)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCourseProgressFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodPost, "/api/courses", gin.H{"title": "Direcao defensiva", "description": "Obrigatorio"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[idBody](t, w)

	w = s.do(http.MethodPost, "/api/modules", gin.H{"courseId": course.ID, "title": "Introducao", "description": "Primeiros passos"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	module := decode[idBody](t, w)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/modules/%d/lessons", module.ID), gin.H{"title": "Boas-vindas", "videoId": "123456"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lesson := decode[idBody](t, w)

	w = s.do(http.MethodPost, "/api/progress", gin.H{"lessonId": lesson.ID, "progress": 40}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/progress/course/%d", course.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 0, summary["completedLessons"])
	w = s.do(http.MethodGet, "/api/auth/me", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	summaryKey := fmt.Sprintf("progress:course:%d:user:%d", course.ID, decode[idBody](t, w).ID)
	assert.True(t, s.redis.Exists(summaryKey))

	w = s.do(http.MethodPost, "/api/progress", gin.H{"lessonId": lesson.ID, "progress": 100}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/progress/course/%d", course.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	summary = decode[map[string]interface{}](t, w)
	assert.True(t, s.redis.Exists(summaryKey))
	assert.EqualValues(t, 1, summary["completedLessons"])
	assert.EqualValues(t, 1, summary["totalLessons"])
	assert.EqualValues(t, 100, summary["percentComplete"])

	w = s.do(http.MethodGet, fmt.Sprintf("/api/progress/course/%d/completed", course.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":true`)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/courses/%d", course.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Boas-vindas")

	w = s.do(http.MethodPost, "/api/progress", gin.H{"lessonId": 9999, "progress": 10}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/progress", gin.H{"lessonId": lesson.ID, "progress": 150}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decode[ErrorResponse](t, w).Message)

	w = s.do(http.MethodGet, "/api/courses/abc", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/courses/%d", course.ID), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/modules/%d", module.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCertificateFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	const courseTitle = "Legislacao de Transito"
	w := s.do(http.MethodPost, "/api/courses", gin.H{"title": courseTitle, "description": "CTB", "hours": 8}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[idBody](t, w)

	w = s.do(http.MethodPost, "/api/quiz", gin.H{
		"courseId": course.ID,
		"questions": []gin.H{
			{"question": "Velocidade maxima em via local?", "options": []string{"30", "60"}, "correctAnswer": 0},
			{"question": "Cinto e obrigatorio?", "options": []string{"Sim", "Nao"}, "correctAnswer": 0},
		},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quiz := decode[idBody](t, w)

	w = s.do(http.MethodPost, "/api/quiz", gin.H{
		"courseId":  course.ID,
		"questions": []gin.H{{"question": "Outra?", "options": []string{"a", "b"}, "correctAnswer": 1}},
	}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/users", gin.H{"name": "Bruno Lima", "email": "bruno@example.com", "password": "secret123"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	student := s.login("bruno@example.com", "secret123")

	w = s.do(http.MethodGet, fmt.Sprintf("/api/quiz?courseId=%d", course.ID), nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctAnswer")

	w = s.do(http.MethodGet, fmt.Sprintf("/api/certificates?courseId=%d", course.ID), nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	// One right answer out of two scores 50 and is not enough
	w = s.do(http.MethodPost, "/api/quiz/response", gin.H{
		"quizId":  quiz.ID,
		"answers": []gin.H{{"selectedAnswer": 0}, {"selectedAnswer": 1}},
	}, student)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"score":50`)

	w = s.do(http.MethodPost, "/api/certificates", gin.H{"courseId": course.ID}, student)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/quiz/response", gin.H{
		"quizId":  quiz.ID,
		"answers": []gin.H{{"selectedAnswer": 0}},
	}, student)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/quiz/response", gin.H{
		"quizId":  quiz.ID,
		"answers": []gin.H{{"selectedAnswer": 0}, {"selectedAnswer": 0}},
	}, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"score":100`)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/quiz/response/user?courseId=%d", course.ID), nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"score":100`)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/quiz/response?courseId=%d", course.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]services.QuizResultSummary](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].AttemptsBeforePass)

	w = s.do(http.MethodPost, "/api/certificates", gin.H{"courseId": course.ID}, student)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cert := decode[services.CertificateView](t, w)
	assert.Len(t, cert.ValidationCode, 8)

	w = s.do(http.MethodPost, "/api/certificates", gin.H{"courseId": course.ID}, student)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/certificates/download?certificateId=%d", cert.ID), nil, student)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t,
		fmt.Sprintf(`attachment; filename="%s"`, services.CertificateFilename(courseTitle)),
		w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = s.do(http.MethodGet, "/api/certificates/validate?code="+cert.ValidationCode, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	validation := decode[services.CertificateValidation](t, w)
	assert.Equal(t, "Bruno Lima", validation.StudentName)
	assert.Equal(t, courseTitle, validation.CourseTitle)
	assert.Equal(t, 100, validation.QuizScore)
	assert.True(t, s.redis.Exists("certificate:code:"+cert.ValidationCode))

	w = s.do(http.MethodGet, "/api/certificates/validate", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/certificates/%d/revoke", cert.ID), nil, student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/certificates/%d/revoke", cert.ID), nil, admin)
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.False(t, s.redis.Exists("certificate:code:"+cert.ValidationCode))

	w = s.do(http.MethodGet, "/api/certificates/validate?code="+cert.ValidationCode, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminExports(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	for _, path := range []string{
		"/api/admin/export/quiz-results.xlsx",
		"/api/admin/export/student-progress.xlsx",
	} {
		w := s.do(http.MethodGet, path, nil, admin)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")
		// xlsx is a zip archive
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), path)
	}

	w := s.do(http.MethodGet, "/api/admin/export/quiz-results.xlsx?courseId=x", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodPost, "/api/users", gin.H{"name": "Carla Dias", "email": "carla@example.com", "password": "secret123"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	carla := decode[idBody](t, w)

	w = s.do(http.MethodPost, "/api/users", gin.H{"name": "Carla Dias", "email": "CARLA@example.com", "password": "secret123"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/students/%d", carla.ID), gin.H{"status": "inactive"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "carla@example.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[idBody](t, w)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", me.ID), nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", carla.ID), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/admin/students/%d/progress", carla.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionRevokedWithAccount(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodPost, "/api/users", gin.H{"name": "Davi Rocha", "email": "davi@example.com", "password": "secret123"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	davi := decode[idBody](t, w)

	student := s.login("davi@example.com", "secret123")
	w = s.do(http.MethodGet, "/api/courses", nil, student)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/students/%d", davi.ID), gin.H{"status": "inactive"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/courses", nil, student)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "user is inactive", decode[ErrorResponse](t, w).Message)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/students/%d", davi.ID), gin.H{"status": "active"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/api/courses", nil, student)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", davi.ID), nil, admin)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/courses", nil, student)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionPicksUpRoleChange(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(adminEmail, adminPassword)

	w := s.do(http.MethodPost, "/api/users", gin.H{"name": "Elisa Reis", "email": "elisa@example.com", "password": "secret123"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	elisa := decode[idBody](t, w)

	session := s.login("elisa@example.com", "secret123")
	w = s.do(http.MethodGet, "/api/admin/students", nil, session)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", elisa.ID), gin.H{"name": "Elisa Reis", "email": "elisa@example.com", "role": "admin"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/admin/students", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)
}
