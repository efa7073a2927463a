package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/events"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/repositories"
	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuizService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) QuizService {
	return &quizService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== QUIZ AUTHORING =====

// Create stores the course's only quiz
func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest) (*QuizView, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	questions, err := s.buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Creating quiz", "course_id", req.CourseID, "questions", len(questions))

	exists, err := s.repo.Course().Exists(ctx, nil, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check course: %w", err)
	}
	if !exists {
		return nil, ErrCourseNotFound
	}

	hasQuiz, err := s.repo.Quiz().ExistsByCourse(ctx, nil, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing quiz: %w", err)
	}
	if hasQuiz {
		return nil, ErrQuizAlreadyExists
	}

	quiz := &models.Quiz{
		CourseID:  req.CourseID,
		Questions: questions,
	}
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		// A concurrent create loses on the unique course index
		if repositories.IsDuplicateError(err) {
			return nil, ErrQuizAlreadyExists
		}
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID, "course_id", quiz.CourseID)
	return buildQuizView(quiz, true), nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest) (*QuizView, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	questions, err := s.buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	quiz.Questions = questions
	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz updated", "quiz_id", id, "questions", len(questions))
	return buildQuizView(quiz, true), nil
}

// GetByCourse returns the course quiz; only admins see the correct answers
func (s *quizService) GetByCourse(ctx context.Context, courseID uint, viewer SessionUser) (*QuizView, error) {
	quiz, err := s.repo.Quiz().GetByCourse(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return buildQuizView(quiz, viewer.IsAdmin()), nil
}

// ===== SUBMISSIONS =====

// Submit scores the answers and stores the attempt, passing or not
func (s *quizService) Submit(ctx context.Context, userID uint, req *SubmitQuizRequest) (*QuizResponseView, error) {
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if errs := s.validator.Business().ValidateQuizAnswers(len(req.Answers), len(quiz.Questions)); len(errs) > 0 {
		return nil, errs
	}

	selected := make([]int, len(req.Answers))
	for i, a := range req.Answers {
		selected[i] = a.SelectedAnswer
	}
	score, answers := ScoreAnswers(quiz.Questions, selected)

	response := &models.QuizResponse{
		QuizID:      quiz.ID,
		UserID:      userID,
		Answers:     answers,
		Score:       score,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.repo.QuizResponse().Create(ctx, nil, response); err != nil {
		return nil, fmt.Errorf("failed to save quiz response: %w", err)
	}

	s.logger.Info("Quiz submitted",
		"quiz_id", quiz.ID,
		"user_id", userID,
		"score", score,
		"passed", response.Passed())

	publishEvent(ctx, s.publisher, s.logger, events.TopicQuizSubmitted, events.QuizSubmittedEvent{
		UserID:     userID,
		QuizID:     quiz.ID,
		CourseID:   quiz.CourseID,
		ResponseID: response.ID,
		Score:      score,
		Passed:     response.Passed(),
	})

	return buildResponseView(response), nil
}

// LatestResponse returns the user's most recent attempt, or nil when there is none
func (s *quizService) LatestResponse(ctx context.Context, userID, courseID uint) (*QuizResponseView, error) {
	quiz, err := s.repo.Quiz().GetByCourse(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	response, err := s.repo.QuizResponse().GetLatest(ctx, nil, userID, quiz.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest response: %w", err)
	}
	return buildResponseView(response), nil
}

// ListResults summarizes every (student, quiz) pair. The reported attempt is the first
// pass, or the last attempt when the student never passed. Recomputed on every call.
func (s *quizService) ListResults(ctx context.Context, courseID *uint) ([]*QuizResultSummary, error) {
	responses, err := s.repo.QuizResponse().List(ctx, nil, repositories.QuizResponseFilters{CourseID: courseID})
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz responses: %w", err)
	}

	groups := groupAttempts(responses)
	results := make([]*QuizResultSummary, 0, len(groups))
	for _, group := range groups {
		reported := reportedAttempt(group)
		summary := &QuizResultSummary{
			ResponseID:         reported.ID,
			UserID:             reported.UserID,
			QuizID:             reported.QuizID,
			Score:              reported.Score,
			Passed:             reported.Passed(),
			AttemptsBeforePass: AttemptsBeforePass(group),
			TotalAttempts:      len(group),
			CompletedAt:        reported.CompletedAt,
		}
		if reported.User != nil {
			summary.StudentName = reported.User.Name
			summary.StudentEmail = reported.User.Email
		}
		if reported.Quiz != nil {
			summary.CourseID = reported.Quiz.CourseID
			if reported.Quiz.Course != nil {
				summary.CourseTitle = reported.Quiz.Course.Title
			}
		}
		results = append(results, summary)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
	return results, nil
}

// ===== HELPERS =====

func (s *quizService) buildQuestions(reqs []QuizQuestionRequest) ([]models.QuizQuestion, error) {
	questions := make([]models.QuizQuestion, len(reqs))
	for i, q := range reqs {
		options := make([]string, len(q.Options))
		for j, opt := range q.Options {
			options[j] = strings.TrimSpace(opt)
		}
		correct := -1
		if q.CorrectAnswer != nil {
			correct = *q.CorrectAnswer
		}
		questions[i] = models.QuizQuestion{
			Question:      strings.TrimSpace(q.Question),
			Options:       options,
			CorrectAnswer: correct,
		}
	}

	if errs := s.validator.Business().ValidateQuizQuestions(questions); len(errs) > 0 {
		return nil, errs
	}
	return questions, nil
}

func buildQuizView(quiz *models.Quiz, withAnswers bool) *QuizView {
	view := &QuizView{
		ID:        quiz.ID,
		CourseID:  quiz.CourseID,
		Questions: make([]QuizQuestionView, len(quiz.Questions)),
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
	for i, q := range quiz.Questions {
		qv := QuizQuestionView{Question: q.Question, Options: q.Options}
		if withAnswers {
			correct := q.CorrectAnswer
			qv.CorrectAnswer = &correct
		}
		view.Questions[i] = qv
	}
	return view
}

func buildResponseView(r *models.QuizResponse) *QuizResponseView {
	answers := []models.QuizAnswer(r.Answers)
	if answers == nil {
		answers = []models.QuizAnswer{}
	}
	return &QuizResponseView{
		ID:          r.ID,
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Score:       r.Score,
		Passed:      r.Passed(),
		Answers:     answers,
		CompletedAt: r.CompletedAt,
	}
}
