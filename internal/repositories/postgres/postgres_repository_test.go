package postgres

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/testutil"
)

type fixture struct {
	db   *gorm.DB
	repo repositories.Repository
	ctx  context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &fixture{
		db:   db,
		repo: NewPostgreSQLRepository(RepositoryConfig{DB: db}),
		ctx:  context.Background(),
	}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Aluno " + email, Email: email, PasswordHash: "hash", Role: models.RoleStudent}
	require.NoError(t, f.repo.User().Create(f.ctx, nil, u))
	return u
}

func (f *fixture) course(t *testing.T, title string) *models.Course {
	t.Helper()
	c := &models.Course{Title: title, Description: "desc", Hours: models.DefaultCourseHours}
	require.NoError(t, f.repo.Course().Create(f.ctx, nil, c))
	return c
}

func (f *fixture) module(t *testing.T, courseID uint, title string) *models.Module {
	t.Helper()
	pos, err := f.repo.Module().NextPosition(f.ctx, nil, courseID)
	require.NoError(t, err)
	m := &models.Module{CourseID: courseID, Title: title, Description: "desc", Position: pos}
	require.NoError(t, f.repo.Module().Create(f.ctx, nil, m))
	return m
}

func (f *fixture) lesson(t *testing.T, m *models.Module, title string) *models.Lesson {
	t.Helper()
	pos, err := f.repo.Lesson().NextPosition(f.ctx, nil, m.ID)
	require.NoError(t, err)
	l := &models.Lesson{CourseID: m.CourseID, ModuleID: m.ID, Title: title, VideoID: "123", VideoSource: models.VideoSourceVimeo, Position: pos}
	require.NoError(t, f.repo.Lesson().Create(f.ctx, nil, l))
	return l
}

func TestModulePositions_AppendDeleteReorder(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Direção defensiva")

	m0 := f.module(t, c.ID, "Introdução")
	m1 := f.module(t, c.ID, "Sinalização")
	m2 := f.module(t, c.ID, "Emergências")
	assert.Equal(t, []int{0, 1, 2}, []int{m0.Position, m1.Position, m2.Position})

	f.lesson(t, m1, "Placas")
	require.NoError(t, f.repo.Module().Delete(f.ctx, nil, m1.ID))

	modules, err := f.repo.Module().ListByCourse(f.ctx, nil, c.ID)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, m0.ID, modules[0].ID)
	assert.Equal(t, 0, modules[0].Position)
	assert.Equal(t, m2.ID, modules[1].ID)
	assert.Equal(t, 1, modules[1].Position)

	var lessonCount int64
	require.NoError(t, f.db.Model(&models.Lesson{}).Where("module_id = ?", m1.ID).Count(&lessonCount).Error)
	assert.Zero(t, lessonCount)

	require.NoError(t, f.repo.Module().UpdatePositions(f.ctx, nil, c.ID, []uint{m2.ID, m0.ID}))
	modules, err = f.repo.Module().ListByCourse(f.ctx, nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, m2.ID, modules[0].ID)
	assert.Equal(t, m0.ID, modules[1].ID)

	next, err := f.repo.Module().NextPosition(f.ctx, nil, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestModuleUpdatePositions_ForeignModuleRejected(t *testing.T) {
	f := newFixture(t)
	a := f.course(t, "A")
	b := f.course(t, "B")
	ma := f.module(t, a.ID, "A0")
	mb := f.module(t, b.ID, "B0")

	err := f.repo.Module().UpdatePositions(f.ctx, nil, a.ID, []uint{mb.ID, ma.ID})
	assert.True(t, repositories.IsNotFoundError(err))

	modules, err := f.repo.Module().ListByCourse(f.ctx, nil, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, modules[0].Position)
}

func TestCourseTree_Ordered(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Legislação")
	m0 := f.module(t, c.ID, "M0")
	m1 := f.module(t, c.ID, "M1")
	f.lesson(t, m1, "L0")
	f.lesson(t, m1, "L1")
	f.lesson(t, m0, "L0")

	require.NoError(t, f.repo.Module().UpdatePositions(f.ctx, nil, c.ID, []uint{m1.ID, m0.ID}))

	tree, err := f.repo.Course().GetByIDWithModules(f.ctx, nil, c.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 2)
	assert.Equal(t, "M1", tree.Modules[0].Title)
	require.Len(t, tree.Modules[0].Lessons, 2)
	assert.Equal(t, "L0", tree.Modules[0].Lessons[0].Title)
	assert.Equal(t, 1, tree.Modules[0].Lessons[1].Position)
	assert.Equal(t, 3, tree.LessonCount())
}

func TestCourseDelete_Cascades(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "aluno@empresa.com")
	c := f.course(t, "Primeiros socorros")
	other := f.course(t, "Outro")
	m := f.module(t, c.ID, "M")
	l := f.lesson(t, m, "L")
	om := f.module(t, other.ID, "OM")
	ol := f.lesson(t, om, "OL")

	_, _, err := f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{UserID: u.ID, LessonID: l.ID, CourseID: c.ID, Progress: 100})
	require.NoError(t, err)
	_, _, err = f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{UserID: u.ID, LessonID: ol.ID, CourseID: other.ID, Progress: 40})
	require.NoError(t, err)

	quiz := &models.Quiz{CourseID: c.ID, Questions: []models.QuizQuestion{{Question: "Q", Options: []string{"a", "b"}}}}
	require.NoError(t, f.repo.Quiz().Create(f.ctx, nil, quiz))
	require.NoError(t, f.repo.QuizResponse().Create(f.ctx, nil, &models.QuizResponse{QuizID: quiz.ID, UserID: u.ID, Score: 100, CompletedAt: time.Now()}))
	require.NoError(t, f.repo.Certificate().Create(f.ctx, nil, &models.Certificate{UserID: u.ID, CourseID: c.ID, QuizScore: 100, ValidationCode: "ABCD1234", Status: models.CertificateActive, IssuedAt: time.Now()}))

	require.NoError(t, f.repo.Course().Delete(f.ctx, nil, c.ID))

	for _, model := range []interface{}{&models.Lesson{}, &models.Module{}, &models.Progress{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Where("course_id = ?", c.ID).Count(&count).Error)
		assert.Zero(t, count)
	}
	exists, err := f.repo.Course().Exists(f.ctx, nil, c.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Untouched sibling course
	records, err := f.repo.Progress().ListByUserAndCourse(f.ctx, nil, u.ID, other.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ol.ID, records[0].LessonID)

	err = f.repo.Course().Delete(f.ctx, nil, c.ID)
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestProgressUpsert_Monotonic(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "p@empresa.com")
	c := f.course(t, "C")
	l := f.lesson(t, f.module(t, c.ID, "M"), "L")
	report := func(p float64, completed bool) (*models.Progress, bool) {
		rec, newly, err := f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{
			UserID: u.ID, LessonID: l.ID, CourseID: c.ID, Progress: p, Completed: completed,
		})
		require.NoError(t, err)
		return rec, newly
	}

	rec, newly := report(40, false)
	assert.Equal(t, 40.0, rec.Progress)
	assert.False(t, rec.Completed)
	assert.False(t, newly)

	rec, _ = report(20, false)
	assert.Equal(t, 40.0, rec.Progress, "lower report must not decrease progress")

	rec, newly = report(100, false)
	assert.Equal(t, 100.0, rec.Progress)
	assert.True(t, rec.Completed)
	assert.True(t, newly)

	rec, newly = report(10, false)
	assert.Equal(t, 100.0, rec.Progress)
	assert.True(t, rec.Completed)
	assert.False(t, newly)

	var count int64
	require.NoError(t, f.db.Model(&models.Progress{}).Where("user_id = ? AND lesson_id = ?", u.ID, l.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProgressUpsert_ExplicitCompletion(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "c@empresa.com")
	c := f.course(t, "C")
	l := f.lesson(t, f.module(t, c.ID, "M"), "L")

	rec, newly, err := f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{UserID: u.ID, LessonID: l.ID, CourseID: c.ID, Progress: 90, Completed: true})
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.True(t, newly)
	assert.Equal(t, 90.0, rec.Progress)
}

func TestProgressCourseSummary(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "s@empresa.com")
	c := f.course(t, "C")
	m := f.module(t, c.ID, "M")
	l1 := f.lesson(t, m, "L1")
	f.lesson(t, m, "L2")
	f.lesson(t, m, "L3")

	empty, err := f.repo.Progress().CourseSummary(f.ctx, nil, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.CompletedLessons)
	assert.Equal(t, int64(3), empty.TotalLessons)
	assert.Equal(t, 0, empty.PercentComplete)
	assert.Nil(t, empty.LastWatched)

	_, _, err = f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{UserID: u.ID, LessonID: l1.ID, CourseID: c.ID, Progress: 100})
	require.NoError(t, err)

	summary, err := f.repo.Progress().CourseSummary(f.ctx, nil, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.CompletedLessons)
	assert.Equal(t, 33, summary.PercentComplete)
	require.NotNil(t, summary.LastWatched)

	ids, err := f.repo.Progress().CompletedLessonIDs(f.ctx, nil, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{l1.ID}, ids)
}

func TestProgressCourseSummary_CachedAndInvalidated(t *testing.T) {
	db := testutil.NewTestDB(t)
	client, mr := testutil.NewTestRedis(t)
	f := &fixture{db: db, repo: NewPostgreSQLRepository(RepositoryConfig{DB: db, RedisClient: client}), ctx: context.Background()}

	u := f.user(t, "r@empresa.com")
	c := f.course(t, "C")
	l := f.lesson(t, f.module(t, c.ID, "M"), "L")

	_, err := f.repo.Progress().CourseSummary(f.ctx, nil, u.ID, c.ID)
	require.NoError(t, err)
	key := "progress:course:" + itoa(c.ID) + ":user:" + itoa(u.ID)
	assert.True(t, mr.Exists(key))

	_, _, err = f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{UserID: u.ID, LessonID: l.ID, CourseID: c.ID, Progress: 100})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	summary, err := f.repo.Progress().CourseSummary(f.ctx, nil, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, summary.PercentComplete)
}

func TestCertificateValidation_CachedThenRevoked(t *testing.T) {
	db := testutil.NewTestDB(t)
	client, mr := testutil.NewTestRedis(t)
	f := &fixture{db: db, repo: NewPostgreSQLRepository(RepositoryConfig{DB: db, RedisClient: client}), ctx: context.Background()}

	u := f.user(t, "cert@empresa.com")
	c := f.course(t, "C")
	cert := &models.Certificate{UserID: u.ID, CourseID: c.ID, QuizScore: 80, ValidationCode: "QW12ER34", Status: models.CertificateActive, IssuedAt: time.Now()}
	require.NoError(t, f.repo.Certificate().Create(f.ctx, nil, cert))

	found, err := f.repo.Certificate().GetActiveByCode(f.ctx, nil, "QW12ER34")
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)
	assert.True(t, mr.Exists("certificate:code:QW12ER34"))

	require.NoError(t, f.repo.Certificate().UpdateStatus(f.ctx, nil, cert.ID, models.CertificateRevoked))
	assert.False(t, mr.Exists("certificate:code:QW12ER34"))

	_, err = f.repo.Certificate().GetActiveByCode(f.ctx, nil, "QW12ER34")
	assert.True(t, repositories.IsNotFoundError(err))

	// Repeated lookups stay negative; misses are never cached
	_, err = f.repo.Certificate().GetActiveByCode(f.ctx, nil, "QW12ER34")
	assert.True(t, repositories.IsNotFoundError(err))
	assert.False(t, mr.Exists("certificate:code:QW12ER34"))
}

func TestUserDelete_DropsCachedValidation(t *testing.T) {
	db := testutil.NewTestDB(t)
	client, mr := testutil.NewTestRedis(t)
	f := &fixture{db: db, repo: NewPostgreSQLRepository(RepositoryConfig{DB: db, RedisClient: client}), ctx: context.Background()}

	u := f.user(t, "saiu@empresa.com")
	c := f.course(t, "C")
	cert := &models.Certificate{UserID: u.ID, CourseID: c.ID, QuizScore: 90, ValidationCode: "ZX98CV76", Status: models.CertificateActive, IssuedAt: time.Now()}
	require.NoError(t, f.repo.Certificate().Create(f.ctx, nil, cert))

	_, err := f.repo.Certificate().GetActiveByCode(f.ctx, nil, "ZX98CV76")
	require.NoError(t, err)
	require.True(t, mr.Exists("certificate:code:ZX98CV76"))

	require.NoError(t, f.repo.User().Delete(f.ctx, nil, u.ID))

	_, err = f.repo.Certificate().GetActiveByCode(f.ctx, nil, "ZX98CV76")
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestQuizUniquePerCourse(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "C")
	questions := []models.QuizQuestion{{Question: "Q1", Options: []string{"a", "b"}, CorrectAnswer: 1}}

	require.NoError(t, f.repo.Quiz().Create(f.ctx, nil, &models.Quiz{CourseID: c.ID, Questions: questions}))
	err := f.repo.Quiz().Create(f.ctx, nil, &models.Quiz{CourseID: c.ID, Questions: questions})
	assert.True(t, repositories.IsDuplicateError(err))

	quiz, err := f.repo.Quiz().GetByCourse(f.ctx, nil, c.ID)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, 1, quiz.Questions[0].CorrectAnswer)
}

func TestQuizResponses_LatestAndList(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "q@empresa.com")
	c := f.course(t, "C")
	quiz := &models.Quiz{CourseID: c.ID, Questions: []models.QuizQuestion{{Question: "Q", Options: []string{"a", "b"}}}}
	require.NoError(t, f.repo.Quiz().Create(f.ctx, nil, quiz))

	base := time.Now().Add(-time.Hour)
	for i, score := range []int{40, 80, 50} {
		require.NoError(t, f.repo.QuizResponse().Create(f.ctx, nil, &models.QuizResponse{
			QuizID: quiz.ID, UserID: u.ID, Score: score, CompletedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := f.repo.QuizResponse().GetLatest(f.ctx, nil, u.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, latest.Score)

	courseID := c.ID
	all, err := f.repo.QuizResponse().List(f.ctx, nil, repositories.QuizResponseFilters{CourseID: &courseID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 40, all[0].Score)
	require.NotNil(t, all[0].User)
	require.NotNil(t, all[0].Quiz)
	require.NotNil(t, all[0].Quiz.Course)
	assert.Equal(t, "C", all[0].Quiz.Course.Title)
}

func TestCertificate_UniqueAndValidation(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "cert@empresa.com")
	c := f.course(t, "Direção")

	cert := &models.Certificate{UserID: u.ID, CourseID: c.ID, QuizScore: 90, ValidationCode: "A1B2C3D4", Status: models.CertificateActive, IssuedAt: time.Now()}
	require.NoError(t, f.repo.Certificate().Create(f.ctx, nil, cert))

	dup := &models.Certificate{UserID: u.ID, CourseID: c.ID, QuizScore: 90, ValidationCode: "ZZZZ9999", Status: models.CertificateActive, IssuedAt: time.Now()}
	assert.True(t, repositories.IsDuplicateError(f.repo.Certificate().Create(f.ctx, nil, dup)))

	found, err := f.repo.Certificate().GetActiveByCode(f.ctx, nil, "A1B2C3D4")
	require.NoError(t, err)
	require.NotNil(t, found.User)
	assert.Equal(t, u.Name, found.User.Name)
	assert.Equal(t, "Direção", found.Course.Title)

	require.NoError(t, f.repo.Certificate().UpdateStatus(f.ctx, nil, cert.ID, models.CertificateRevoked))
	_, err = f.repo.Certificate().GetActiveByCode(f.ctx, nil, "A1B2C3D4")
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestUser_EmailNormalizedAndUnique(t *testing.T) {
	f := newFixture(t)
	u := &models.User{Name: "Maria", Email: "  Maria@Empresa.COM ", PasswordHash: "h"}
	require.NoError(t, f.repo.User().Create(f.ctx, nil, u))
	assert.Equal(t, "maria@empresa.com", u.Email)

	got, err := f.repo.User().GetByEmail(f.ctx, nil, "MARIA@empresa.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, models.RoleStudent, got.Role)

	err = f.repo.User().Create(f.ctx, nil, &models.User{Name: "Outra", Email: "maria@empresa.com", PasswordHash: "h"})
	assert.True(t, repositories.IsDuplicateError(err))

	exists, err := f.repo.User().ExistsByEmail(f.ctx, nil, "maria@empresa.com", &u.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	f := newFixture(t)

	err := f.repo.WithTransaction(f.ctx, func(tx repositories.Repository) error {
		if err := tx.Course().Create(f.ctx, nil, &models.Course{Title: "Temp", Description: "d"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	assert.ErrorIs(t, err, gorm.ErrInvalidData)

	_, total, err := f.repo.Course().List(f.ctx, nil, repositories.CourseFilters{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDashboard_LessonTotalsAndActivities(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "d@empresa.com")
	c1 := f.course(t, "C1")
	f.course(t, "Vazio")
	l := f.lesson(t, f.module(t, c1.ID, "M"), "L")
	f.lesson(t, f.module(t, c1.ID, "M2"), "L2")

	_, _, err := f.repo.Progress().Upsert(f.ctx, nil, repositories.ProgressUpsert{UserID: u.ID, LessonID: l.ID, CourseID: c1.ID, Progress: 100})
	require.NoError(t, err)

	totals, err := f.repo.Dashboard().LessonTotalsByCourse(f.ctx, nil)
	require.NoError(t, err)
	byTitle := map[string]int64{}
	for _, total := range totals {
		byTitle[total.Title] = total.TotalLessons
	}
	assert.Equal(t, map[string]int64{"C1": 2, "Vazio": 0}, byTitle)

	activities, err := f.repo.Dashboard().GetRecentActivities(f.ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, u.Name, activities[0].StudentName)
	assert.Equal(t, "C1", activities[0].CourseName)
	assert.True(t, activities[0].Completed)

	students, err := f.repo.Dashboard().CountUsersByRole(f.ctx, nil, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), students)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
