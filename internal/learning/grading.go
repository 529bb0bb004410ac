package learning

import (
	"math"
	"strings"

	"aula-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GradeResult struct {
	Score      float64
	MaxScore   float64
	Percentage int
	Passed     bool
}

// Grade scores answers against the exam key. Choice questions earn their full
// points when the selected option is correct. Text questions are not
// auto-graded and earn 0 while still counting toward the maximum.
func Grade(exam domain.Exam, answers []domain.Answer) GradeResult {
	byQuestion := make(map[primitive.ObjectID]domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	var res GradeResult
	for _, q := range exam.Questions {
		res.MaxScore += q.Points
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		switch q.Type {
		case domain.QuestionMultipleChoice, domain.QuestionTrueFalse:
			if opt := selectedOption(q, a); opt != nil && opt.Correct {
				res.Score += q.Points
			}
		}
	}

	if res.MaxScore > 0 {
		res.Percentage = int(math.Round(res.Score / res.MaxScore * 100))
	}
	res.Passed = float64(res.Percentage) >= exam.PassPercentage
	return res
}

func selectedOption(q domain.Question, a domain.Answer) *domain.Option {
	if a.OptionID != nil {
		for i := range q.Options {
			if q.Options[i].ID == *a.OptionID {
				return &q.Options[i]
			}
		}
		return nil
	}

	resp := strings.TrimSpace(a.Response)
	if resp == "" {
		return nil
	}
	if q.Type == domain.QuestionTrueFalse {
		want, ok := TrueFalseValue(resp)
		if !ok {
			return nil
		}
		for i := range q.Options {
			if v, ok := TrueFalseValue(q.Options[i].Text); ok && v == want {
				return &q.Options[i]
			}
		}
		return nil
	}
	for i := range q.Options {
		if strings.EqualFold(strings.TrimSpace(q.Options[i].Text), resp) {
			return &q.Options[i]
		}
	}
	return nil
}

// TrueFalseValue reads the words a true/false question accepts, both as
// option texts and as submitted answers.
func TrueFalseValue(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verdadero", "true", "v", "si", "sí":
		return true, true
	case "falso", "false", "f", "no":
		return false, true
	}
	return false, false
}

func RemainingAttempts(allowed, attempt int) int {
	if allowed-attempt < 0 {
		return 0
	}
	return allowed - attempt
}

// ExhaustsAttempts reports whether a failed attempt used up the last allowed
// try, which resets the whole course for the student.
func ExhaustsAttempts(passed bool, attempt, allowed int) bool {
	return !passed && attempt >= allowed
}
