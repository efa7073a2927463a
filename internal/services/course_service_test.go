package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

func modulePositions(t *testing.T, f *fixture, courseID uint) map[uint]int {
	t.Helper()
	course, err := f.courses.GetByID(f.ctx, courseID)
	require.NoError(t, err)
	positions := make(map[uint]int, len(course.Modules))
	for _, m := range course.Modules {
		positions[m.ID] = m.Position
	}
	return positions
}

func TestCourseService_CreateDefaultsHours(t *testing.T) {
	f := newFixture(t)

	course, err := f.courses.Create(f.ctx, &CreateCourseRequest{Title: "  Direção defensiva ", Description: "Curso obrigatório"})
	require.NoError(t, err)
	assert.Equal(t, "Direção defensiva", course.Title)
	assert.Equal(t, models.DefaultCourseHours, course.Hours)

	hours := 40
	course, err = f.courses.Create(f.ctx, &CreateCourseRequest{Title: "Mecânica", Description: "Oficina", Hours: &hours})
	require.NoError(t, err)
	assert.Equal(t, 40, course.Hours)

	_, err = f.courses.Create(f.ctx, &CreateCourseRequest{Title: "   ", Description: "x"})
	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestCourseService_GetByIDReturnsOrderedTree(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Primeiros socorros")
	m1 := f.module(t, c.ID, "Avaliação")
	m2 := f.module(t, c.ID, "Atendimento")
	f.lesson(t, m1.ID, "Cena segura")
	f.lesson(t, m1.ID, "Chamar ajuda")

	course, err := f.courses.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, course.Modules, 2)
	assert.Equal(t, m1.ID, course.Modules[0].ID)
	assert.Equal(t, m2.ID, course.Modules[1].ID)
	require.Len(t, course.Modules[0].Lessons, 2)
	assert.Equal(t, "Cena segura", course.Modules[0].Lessons[0].Title)
	assert.Equal(t, 1, course.Modules[0].Lessons[1].Position)

	_, err = f.courses.GetByID(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "ana@example.com")
	c := f.course(t, "Legislação")
	m := f.module(t, c.ID, "CTB")
	l := f.lesson(t, m.ID, "Infrações")
	q := f.quiz(t, c.ID, 1)
	f.submit(t, u.ID, q, 1)
	_, err := f.progress.Update(f.ctx, u.ID, &UpdateProgressRequest{LessonID: l.ID, Progress: 100})
	require.NoError(t, err)
	_, err = f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	require.NoError(t, err)

	require.NoError(t, f.courses.Delete(f.ctx, c.ID))

	_, err = f.courses.GetByID(f.ctx, c.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = f.modules.GetByID(f.ctx, m.ID)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	_, err = f.lessons.GetByID(f.ctx, l.ID)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	records, err := f.progress.ListByCourse(f.ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	certs, err := f.certificates.ListByUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, certs)

	assert.ErrorIs(t, f.courses.Delete(f.ctx, c.ID), ErrCourseNotFound)
}

func TestCourseService_ListAvailableStartedFirst(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "bia@example.com")
	first := f.course(t, "Primeiro")
	second := f.course(t, "Segundo")
	third := f.course(t, "Terceiro")
	l := f.lesson(t, f.module(t, first.ID, "M").ID, "L")
	f.lesson(t, f.module(t, second.ID, "M").ID, "L")

	_, err := f.progress.Update(f.ctx, u.ID, &UpdateProgressRequest{LessonID: l.ID, Progress: 100})
	require.NoError(t, err)

	available, err := f.courses.ListAvailable(f.ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, available, 3)

	assert.Equal(t, first.ID, available[0].ID)
	assert.Equal(t, 100, available[0].Progress.PercentComplete)
	assert.Equal(t, 1, available[0].ModuleCount)
	assert.Equal(t, 1, available[0].LessonCount)

	assert.ElementsMatch(t, []uint{second.ID, third.ID}, []uint{available[1].ID, available[2].ID})
	assert.Equal(t, 0, available[1].Progress.PercentComplete)
}

func TestModuleService_CreateAppendsAndDeleteRenumbers(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Mecânica")
	m0 := f.module(t, c.ID, "Motor")
	m1 := f.module(t, c.ID, "Freios")
	m2 := f.module(t, c.ID, "Suspensão")
	assert.Equal(t, []int{0, 1, 2}, []int{m0.Position, m1.Position, m2.Position})

	lesson := f.lesson(t, m1.ID, "Pastilhas")

	require.NoError(t, f.modules.Delete(f.ctx, m1.ID))

	positions := modulePositions(t, f, c.ID)
	assert.Equal(t, map[uint]int{m0.ID: 0, m2.ID: 1}, positions)

	_, err := f.lessons.GetByID(f.ctx, lesson.ID)
	assert.ErrorIs(t, err, ErrLessonNotFound)

	assert.ErrorIs(t, f.modules.Delete(f.ctx, m1.ID), ErrModuleNotFound)

	_, err = f.modules.Create(f.ctx, &CreateModuleRequest{CourseID: 9999, Title: "X", Description: "Y"})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestModuleService_Reorder(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Atendimento")
	other := f.course(t, "Outro")
	a := f.module(t, c.ID, "A")
	b := f.module(t, c.ID, "B")
	d := f.module(t, c.ID, "C")
	foreign := f.module(t, other.ID, "Z")

	err := f.modules.Reorder(f.ctx, &ReorderModulesRequest{CourseID: c.ID, ModuleIDs: []uint{d.ID, a.ID, b.ID}})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{d.ID: 0, a.ID: 1, b.ID: 2}, modulePositions(t, f, c.ID))

	tests := []struct {
		name string
		ids  []uint
	}{
		{name: "missing module", ids: []uint{a.ID, b.ID}},
		{name: "duplicate module", ids: []uint{a.ID, a.ID, b.ID}},
		{name: "module from another course", ids: []uint{a.ID, b.ID, foreign.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.modules.Reorder(f.ctx, &ReorderModulesRequest{CourseID: c.ID, ModuleIDs: tt.ids})
			var verrs ValidationErrors
			assert.True(t, errors.As(err, &verrs))
		})
	}

	assert.Equal(t, map[uint]int{d.ID: 0, a.ID: 1, b.ID: 2}, modulePositions(t, f, c.ID))

	err = f.modules.Reorder(f.ctx, &ReorderModulesRequest{CourseID: 9999, ModuleIDs: []uint{a.ID}})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestModuleService_Update(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Ética")
	m := f.module(t, c.ID, "Conduta")

	updated, err := f.modules.Update(f.ctx, m.ID, &UpdateModuleRequest{Title: " Conduta profissional ", Description: "Novo"})
	require.NoError(t, err)
	assert.Equal(t, "Conduta profissional", updated.Title)
	assert.Equal(t, m.Position, updated.Position)

	_, err = f.modules.Update(f.ctx, 9999, &UpdateModuleRequest{Title: "X", Description: "Y"})
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLessonService_CreateCopiesCourseFromModule(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Direção econômica")
	m := f.module(t, c.ID, "Combustível")

	published := true
	lesson, err := f.lessons.Create(f.ctx, m.ID, &CreateLessonRequest{
		Title:       "Troca de marchas",
		VideoID:     " 123456 ",
		Duration:    300,
		IsPublished: &published,
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, lesson.CourseID)
	assert.Equal(t, "123456", lesson.VideoID)
	assert.Equal(t, models.VideoSourceVimeo, lesson.VideoSource)
	assert.True(t, lesson.IsPublished)
	assert.Equal(t, 0, lesson.Position)

	_, err = f.lessons.Create(f.ctx, 9999, &CreateLessonRequest{Title: "X", VideoID: "1"})
	assert.ErrorIs(t, err, ErrModuleNotFound)

	_, err = f.lessons.Create(f.ctx, m.ID, &CreateLessonRequest{Title: "X", VideoID: "1", VideoSource: "betamax"})
	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestLessonService_DeleteRenumbers(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Segurança")
	m := f.module(t, c.ID, "EPI")
	l0 := f.lesson(t, m.ID, "Capacete")
	l1 := f.lesson(t, m.ID, "Luvas")
	l2 := f.lesson(t, m.ID, "Botas")

	require.NoError(t, f.lessons.Delete(f.ctx, l1.ID))

	lessons, err := f.lessons.ListByModule(f.ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, l0.ID, lessons[0].ID)
	assert.Equal(t, 0, lessons[0].Position)
	assert.Equal(t, l2.ID, lessons[1].ID)
	assert.Equal(t, 1, lessons[1].Position)

	assert.ErrorIs(t, f.lessons.Delete(f.ctx, l1.ID), ErrLessonNotFound)

	_, err = f.lessons.ListByModule(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLessonService_UpdateAndAttachVideo(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Atendimento ao passageiro")
	m := f.module(t, c.ID, "Embarque")
	l := f.lesson(t, m.ID, "Recepção")

	duration := 120
	updated, err := f.lessons.Update(f.ctx, l.ID, &UpdateLessonRequest{
		Title:    "Recepção cordial",
		VideoID:  "555",
		Duration: &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, "Recepção cordial", updated.Title)
	assert.Equal(t, 120, updated.Duration)
	assert.Equal(t, models.VideoSourceVimeo, updated.VideoSource)

	attached, err := f.lessons.AttachVideo(f.ctx, l.ID, &AttachVideoRequest{VideoID: "987654", Duration: 95})
	require.NoError(t, err)
	assert.Equal(t, "987654", attached.VideoID)
	assert.Equal(t, 95, attached.Duration)
	assert.Equal(t, "Recepção cordial", attached.Title)

	_, err = f.lessons.AttachVideo(f.ctx, 9999, &AttachVideoRequest{VideoID: "1"})
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestCourseService_CachedTreeFollowsWrites(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, "Manutenção preventiva")

	tree, err := f.courses.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, tree.Modules)
	require.True(t, f.redis.Exists(fmt.Sprintf("course:tree:%d", c.ID)))

	m1 := f.module(t, c.ID, "Pneus")
	m2 := f.module(t, c.ID, "Freios")
	f.lesson(t, m1.ID, "Calibragem")

	tree, err = f.courses.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 2)
	require.Len(t, tree.Modules[0].Lessons, 1)
	assert.Equal(t, "Calibragem", tree.Modules[0].Lessons[0].Title)

	require.NoError(t, f.modules.Reorder(f.ctx, &ReorderModulesRequest{CourseID: c.ID, ModuleIDs: []uint{m2.ID, m1.ID}}))

	tree, err = f.courses.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tree.Modules, 2)
	assert.Equal(t, m2.ID, tree.Modules[0].ID)
	assert.Equal(t, m1.ID, tree.Modules[1].ID)
}
