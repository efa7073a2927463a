package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

func questionsWithAnswers(correct ...int) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, len(correct))
	for i, c := range correct {
		questions[i] = models.QuizQuestion{
			Question:      "q",
			Options:       []string{"a", "b", "c"},
			CorrectAnswer: c,
		}
	}
	return questions
}

func TestScoreAnswers(t *testing.T) {
	tests := []struct {
		name      string
		questions []models.QuizQuestion
		selected  []int
		want      int
		correct   []bool
	}{
		{
			name:      "three of four",
			questions: questionsWithAnswers(0, 1, 2, 0),
			selected:  []int{0, 1, 2, 1},
			want:      75,
			correct:   []bool{true, true, true, false},
		},
		{
			name:      "rounds to nearest",
			questions: questionsWithAnswers(0, 0, 0),
			selected:  []int{0, 0, 1},
			want:      67,
			correct:   []bool{true, true, false},
		},
		{
			name:      "out of range answers are wrong",
			questions: questionsWithAnswers(0, 1),
			selected:  []int{-1, 7},
			want:      0,
			correct:   []bool{false, false},
		},
		{
			name:      "no questions",
			questions: nil,
			selected:  []int{},
			want:      0,
			correct:   []bool{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, answers := ScoreAnswers(tt.questions, tt.selected)
			assert.Equal(t, tt.want, score)
			require.Len(t, answers, len(tt.correct))
			for i, a := range answers {
				assert.Equal(t, i, a.QuestionIndex)
				assert.Equal(t, tt.selected[i], a.SelectedAnswer)
				assert.Equal(t, tt.correct[i], a.IsCorrect)
			}
		})
	}
}

func attemptsWithScores(scores ...int) []*models.QuizResponse {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	responses := make([]*models.QuizResponse, len(scores))
	for i, s := range scores {
		responses[i] = &models.QuizResponse{
			ID:          uint(i + 1),
			UserID:      1,
			QuizID:      1,
			Score:       s,
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return responses
}

func TestAttemptsBeforePass(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
	}{
		{name: "third attempt passes", scores: []int{40, 55, 80, 90}, want: 3},
		{name: "first attempt passes", scores: []int{70}, want: 1},
		{name: "never passed", scores: []int{10, 20, 69}, want: 3},
		{name: "no attempts", scores: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttemptsBeforePass(attemptsWithScores(tt.scores...)))
		})
	}
}

func TestAttemptsBeforePass_OrdersByCompletion(t *testing.T) {
	responses := attemptsWithScores(40, 55, 80)
	// Stored out of order: the passing attempt is still the third in time
	shuffled := []*models.QuizResponse{responses[2], responses[0], responses[1]}
	assert.Equal(t, 3, AttemptsBeforePass(shuffled))
}

func TestReportedAttempt(t *testing.T) {
	passed := attemptsWithScores(40, 80, 90)
	assert.Equal(t, 80, reportedAttempt(passed).Score)

	failed := attemptsWithScores(40, 60, 50)
	assert.Equal(t, 50, reportedAttempt(failed).Score)

	assert.Nil(t, reportedAttempt(nil))
}

func TestGroupAttempts(t *testing.T) {
	responses := []*models.QuizResponse{
		{ID: 1, UserID: 1, QuizID: 1},
		{ID: 2, UserID: 2, QuizID: 1},
		{ID: 3, UserID: 1, QuizID: 1},
		{ID: 4, UserID: 1, QuizID: 2},
	}
	groups := groupAttempts(responses)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Equal(t, uint(2), groups[1][0].UserID)
	assert.Equal(t, uint(2), groups[2][0].QuizID)
}
