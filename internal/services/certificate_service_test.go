package services

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

func TestGenerateValidationCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Z]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateValidationCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestCertificateFilename(t *testing.T) {
	assert.Equal(t, "certificado-direcao-defensiva.pdf", CertificateFilename("Direção Defensiva"))
	assert.Equal(t, "certificado-curso.pdf", CertificateFilename("  "))
}

func TestCertificateService_Issue(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "ana@example.com")
	c := f.course(t, "Direção defensiva")
	q := f.quiz(t, c.ID, 4)

	f.submit(t, u.ID, q, 3)

	cert, err := f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, 75, cert.QuizScore)
	assert.Equal(t, models.CertificateActive, cert.Status)
	assert.Equal(t, "Direção defensiva", cert.CourseTitle)
	assert.Len(t, cert.ValidationCode, models.ValidationCodeLength)
	assert.False(t, cert.IssuedAt.IsZero())

	issued := f.eventsOn(events.TopicCertificateIssued)
	require.Len(t, issued, 1)
	assert.Equal(t, cert.ValidationCode, issued[0].Event.Data.(events.CertificateIssuedEvent).ValidationCode)

	_, err = f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	assert.ErrorIs(t, err, ErrCertificateAlreadyExists)

	found, err := f.certificates.GetForCourse(f.ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)

	list, err := f.certificates.ListByUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCertificateService_IssueUsesLatestAttempt(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "bruno@example.com")
	c := f.course(t, "Primeiros socorros")

	_, err := f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	assert.ErrorIs(t, err, ErrQuizNotFound)

	q := f.quiz(t, c.ID, 10)

	_, err = f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	assert.ErrorIs(t, err, ErrCertificateNotEligible)

	f.submit(t, u.ID, q, 8)
	f.submit(t, u.ID, q, 5)

	_, err = f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	assert.ErrorIs(t, err, ErrCertificateNotEligible)

	f.submit(t, u.ID, q, 7)
	cert, err := f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, 70, cert.QuizScore)
}

func TestCertificateService_ValidateAndRevoke(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "carla@example.com")
	c := f.course(t, "Legislação de trânsito")
	q := f.quiz(t, c.ID, 2)
	f.submit(t, u.ID, q, 2)

	cert, err := f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	require.NoError(t, err)

	validation, err := f.certificates.Validate(f.ctx, " "+cert.ValidationCode+" ")
	require.NoError(t, err)
	assert.Equal(t, "Aluno carla@example.com", validation.StudentName)
	assert.Equal(t, "Legislação de trânsito", validation.CourseTitle)
	assert.Equal(t, models.DefaultCourseHours, validation.Hours)
	assert.Equal(t, 100, validation.QuizScore)
	assert.True(t, f.redis.Exists("certificate:code:"+cert.ValidationCode))

	_, err = f.certificates.Validate(f.ctx, "ZZZZZZZZ")
	assert.ErrorIs(t, err, ErrCertificateNotFound)

	_, err = f.certificates.Validate(f.ctx, "")
	assert.ErrorIs(t, err, ErrBadRequest)

	require.NoError(t, f.certificates.Revoke(f.ctx, cert.ID))
	assert.False(t, f.redis.Exists("certificate:code:"+cert.ValidationCode))
	require.NoError(t, f.certificates.Revoke(f.ctx, cert.ID))

	_, err = f.certificates.Validate(f.ctx, cert.ValidationCode)
	assert.ErrorIs(t, err, ErrCertificateNotFound)
	_, err = f.certificates.Validate(f.ctx, cert.ValidationCode)
	assert.ErrorIs(t, err, ErrCertificateNotFound)

	none, err := f.certificates.GetForCourse(f.ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.ErrorIs(t, f.certificates.Revoke(f.ctx, 9999), ErrCertificateNotFound)
}

func TestCertificateService_ValidateReflectsRenamedHolder(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "fabio@example.com")
	c := f.course(t, "Atendimento ao passageiro")
	q := f.quiz(t, c.ID, 1)
	f.submit(t, u.ID, q, 1)

	cert, err := f.certificates.Issue(f.ctx, u.ID, &IssueCertificateRequest{CourseID: c.ID})
	require.NoError(t, err)

	validation, err := f.certificates.Validate(f.ctx, cert.ValidationCode)
	require.NoError(t, err)
	assert.Equal(t, "Aluno fabio@example.com", validation.StudentName)

	_, err = f.users.Update(f.ctx, u.ID, &UpdateUserRequest{Name: "Fábio Lima", Email: "fabio@example.com"})
	require.NoError(t, err)

	validation, err = f.certificates.Validate(f.ctx, cert.ValidationCode)
	require.NoError(t, err)
	assert.Equal(t, "Fábio Lima", validation.StudentName)
}

func TestCertificateService_Download(t *testing.T) {
	f := newFixture(t)
	owner := f.student(t, "dani@example.com")
	other := f.student(t, "edu@example.com")
	admin := f.admin(t, "admin@example.com")
	c := f.course(t, "Direção Defensiva")
	q := f.quiz(t, c.ID, 1)
	f.submit(t, owner.ID, q, 1)

	cert, err := f.certificates.Issue(f.ctx, owner.ID, &IssueCertificateRequest{CourseID: c.ID})
	require.NoError(t, err)

	doc, err := f.certificates.Download(f.ctx, cert.ID, SessionUser{ID: owner.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "certificado-direcao-defensiva.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))

	_, err = f.certificates.Download(f.ctx, cert.ID, SessionUser{ID: other.ID, Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.certificates.Download(f.ctx, cert.ID, SessionUser{ID: admin.ID, Role: models.RoleAdmin})
	assert.NoError(t, err)

	require.NoError(t, f.certificates.Revoke(f.ctx, cert.ID))
	_, err = f.certificates.Download(f.ctx, cert.ID, SessionUser{ID: owner.ID, Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestCertificateRenderer_RenderPNG(t *testing.T) {
	r, err := NewCertificateRenderer()
	require.NoError(t, err)

	img, err := r.RenderPNG(CertificateData{
		StudentName:    "Maria Souza",
		CourseTitle:    "Direção defensiva",
		Hours:          10,
		Score:          90,
		ValidationCode: "AB12CD34",
		ValidationURL:  "https://treinamentos.example.com/validate/AB12CD34",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}
