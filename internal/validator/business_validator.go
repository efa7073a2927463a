package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// BusinessValidator handles rules that span several fields or records
type BusinessValidator struct {
	validate *validator.Validate
}

// registerCustomTags registers the service's custom struct tags
func registerCustomTags(validate *validator.Validate) {
	validate.RegisterValidation("video_source", func(fl validator.FieldLevel) bool {
		source := fl.Field().String()
		return source == "" || models.VideoSource(source).IsValid()
	})

	validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := models.UserRole(fl.Field().String())
		return role == models.RoleAdmin || role == models.RoleStudent
	})

	validate.RegisterValidation("user_status", func(fl validator.FieldLevel) bool {
		status := models.UserStatus(fl.Field().String())
		return status == models.UserActive || status == models.UserInactive
	})

	// Progress percentage (0-100)
	validate.RegisterValidation("progress_percent", func(fl validator.FieldLevel) bool {
		p := fl.Field().Float()
		return !math.IsNaN(p) && p >= 0 && p <= 100
	})

	// Title validation (1-200 characters, not blank)
	validate.RegisterValidation("course_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	validate.RegisterValidation("privacy_view", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "anybody", "nobody", "contacts", "password", "unlisted", "disable":
			return true
		}
		return false
	})
}

// ValidateQuizQuestions checks every question has options and an in-range correct answer
func (bv *BusinessValidator) ValidateQuizQuestions(questions []models.QuizQuestion) ValidationErrors {
	var errors ValidationErrors

	if len(questions) == 0 {
		errors = append(errors, ValidationError{
			Field:   "questions",
			Message: "must contain at least 1 items",
			Rule:    "min",
		})
	}

	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].question", i),
				Message: "is required",
				Rule:    "required",
			})
		}
		if len(q.Options) < 2 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].options", i),
				Message: "must contain at least 2 items",
				Value:   len(q.Options),
				Rule:    "min",
			})
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("questions[%d].options[%d]", i, j),
					Message: "option cannot be empty",
					Rule:    "business_logic",
				})
			}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].correctAnswer", i),
				Message: "must reference one of the options",
				Value:   q.CorrectAnswer,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateReorder checks the requested order names exactly the course's modules, once each
func (bv *BusinessValidator) ValidateReorder(requested []uint, existing []uint) ValidationErrors {
	var errors ValidationErrors

	known := make(map[uint]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	seen := make(map[uint]bool, len(requested))
	for i, id := range requested {
		if !known[id] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("moduleIds[%d]", i),
				Message: "module does not belong to the course",
				Value:   id,
				Rule:    "business_logic",
			})
		}
		if seen[id] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("moduleIds[%d]", i),
				Message: "module listed more than once",
				Value:   id,
				Rule:    "business_logic",
			})
		}
		seen[id] = true
	}

	if len(errors) == 0 && len(requested) != len(existing) {
		errors = append(errors, ValidationError{
			Field:   "moduleIds",
			Message: fmt.Sprintf("must list all %d modules of the course", len(existing)),
			Value:   len(requested),
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateQuizAnswers checks one answer was given per question
func (bv *BusinessValidator) ValidateQuizAnswers(answerCount, questionCount int) ValidationErrors {
	if answerCount == questionCount {
		return nil
	}
	return ValidationErrors{{
		Field:   "answers",
		Message: fmt.Sprintf("expected %d answers, got %d", questionCount, answerCount),
		Value:   answerCount,
		Rule:    "business_logic",
	}}
}
