package services

import (
	"sort"

	"github.com/luizinhodavp041/viacao-piraquara-treinamentos/internal/models"
)

// ScoreAnswers grades answers positionally against the questions. An answer outside
// the option range counts as wrong and a quiz without questions scores 0.
func ScoreAnswers(questions []models.QuizQuestion, selected []int) (int, []models.QuizAnswer) {
	answers := make([]models.QuizAnswer, len(selected))
	correct := 0
	for i, choice := range selected {
		isCorrect := i < len(questions) &&
			choice >= 0 && choice < len(questions[i].Options) &&
			choice == questions[i].CorrectAnswer
		if isCorrect {
			correct++
		}
		answers[i] = models.QuizAnswer{
			QuestionIndex:  i,
			SelectedAnswer: choice,
			IsCorrect:      isCorrect,
		}
	}
	return models.Percent(int64(correct), int64(len(questions))), answers
}

// AttemptsBeforePass returns the 1-based index of the first passing attempt, or the
// number of attempts when none passed. Attempts are ordered by completion time first.
func AttemptsBeforePass(responses []*models.QuizResponse) int {
	ordered := sortedByCompletion(responses)
	for i, r := range ordered {
		if r.Passed() {
			return i + 1
		}
	}
	return len(ordered)
}

// reportedAttempt picks the first passing attempt, or the last one when none passed
func reportedAttempt(responses []*models.QuizResponse) *models.QuizResponse {
	ordered := sortedByCompletion(responses)
	if len(ordered) == 0 {
		return nil
	}
	for _, r := range ordered {
		if r.Passed() {
			return r
		}
	}
	return ordered[len(ordered)-1]
}

func sortedByCompletion(responses []*models.QuizResponse) []*models.QuizResponse {
	ordered := make([]*models.QuizResponse, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CompletedAt.Equal(ordered[j].CompletedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})
	return ordered
}

type attemptGroupKey struct {
	userID uint
	quizID uint
}

// groupAttempts splits responses per (user, quiz) keeping first-seen group order
func groupAttempts(responses []*models.QuizResponse) [][]*models.QuizResponse {
	index := make(map[attemptGroupKey]int)
	var groups [][]*models.QuizResponse
	for _, r := range responses {
		key := attemptGroupKey{userID: r.UserID, quizID: r.QuizID}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	return groups
}
