package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/config"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories/postgres"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/testutil"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

const testJWTSecret = "test-secret-with-enough-bytes-1234"

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher *events.MockEventPublisher
	redis     *miniredis.Miniredis

	courses      CourseService
	modules      ModuleService
	lessons      LessonService
	progress     ProgressService
	quizzes      QuizService
	certificates CertificateService
	users        UserService
	auth         AuthService
	dashboard    DashboardService
	export       ExportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	publisher := events.NewMockEventPublisher(logger)
	client, mr := testutil.NewTestRedis(t)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, RedisClient: client})

	renderer, err := NewCertificateRenderer()
	require.NoError(t, err)

	f := &fixture{
		ctx:       context.Background(),
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		redis:     mr,
	}
	f.courses = NewCourseService(repo, db, logger, v)
	f.modules = NewModuleService(repo, db, logger, v)
	f.lessons = NewLessonService(repo, db, logger, v)
	f.progress = NewProgressService(repo, db, logger, v, publisher)
	f.quizzes = NewQuizService(repo, db, logger, v, publisher)
	f.certificates = NewCertificateService(repo, db, logger, v, publisher, renderer, "https://treinamentos.example.com")
	f.users = NewUserService(repo, db, logger, v)
	f.auth = NewAuthService(repo, db, logger, v, config.SessionConfig{JWTSecret: testJWTSecret, TTL: time.Hour})
	f.dashboard = NewDashboardService(repo, db, logger)
	f.export = NewExportService(f.quizzes, f.dashboard, logger)
	return f
}

func (f *fixture) student(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.users.Create(f.ctx, &CreateUserRequest{Name: "Aluno " + email, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return u
}

func (f *fixture) admin(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.users.Create(f.ctx, &CreateUserRequest{Name: "Admin", Email: email, Password: "secret123", Role: string(models.RoleAdmin)})
	require.NoError(t, err)
	return u
}

func (f *fixture) course(t *testing.T, title string) *models.Course {
	t.Helper()
	c, err := f.courses.Create(f.ctx, &CreateCourseRequest{Title: title, Description: "Curso de " + title})
	require.NoError(t, err)
	return c
}

func (f *fixture) module(t *testing.T, courseID uint, title string) *models.Module {
	t.Helper()
	m, err := f.modules.Create(f.ctx, &CreateModuleRequest{CourseID: courseID, Title: title, Description: "Módulo " + title})
	require.NoError(t, err)
	return m
}

func (f *fixture) lesson(t *testing.T, moduleID uint, title string) *models.Lesson {
	t.Helper()
	l, err := f.lessons.Create(f.ctx, moduleID, &CreateLessonRequest{Title: title, VideoID: "76979871"})
	require.NoError(t, err)
	return l
}

// quiz creates a quiz whose correct answer is always option 0
func (f *fixture) quiz(t *testing.T, courseID uint, questions int) *QuizView {
	t.Helper()
	reqs := make([]QuizQuestionRequest, questions)
	for i := range reqs {
		correct := 0
		reqs[i] = QuizQuestionRequest{
			Question:      "Pergunta",
			Options:       []string{"certa", "errada"},
			CorrectAnswer: &correct,
		}
	}
	q, err := f.quizzes.Create(f.ctx, &CreateQuizRequest{CourseID: courseID, Questions: reqs})
	require.NoError(t, err)
	return q
}

// submit answers the first `correct` questions right and the rest wrong
func (f *fixture) submit(t *testing.T, userID uint, quiz *QuizView, correct int) *QuizResponseView {
	t.Helper()
	answers := make([]SubmittedAnswer, len(quiz.Questions))
	for i := range answers {
		if i >= correct {
			answers[i].SelectedAnswer = 1
		}
	}
	r, err := f.quizzes.Submit(f.ctx, userID, &SubmitQuizRequest{QuizID: quiz.ID, Answers: answers})
	require.NoError(t, err)
	return r
}

func (f *fixture) eventsOn(topic string) []events.PublishedEvent {
	var out []events.PublishedEvent
	for _, e := range f.publisher.GetPublishedEvents() {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
