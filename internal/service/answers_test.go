package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/models"
)

func TestParseAnswersAcceptsStringsAndLists(t *testing.T) {
	answers, err := parseAnswers([]byte(`{"1":"A","2":["B","D"],"3":"lift with your knees"}`))
	require.NoError(t, err)
	require.Len(t, answers, 3)
}

func TestParseAnswersRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"empty body":   ``,
		"not json":     `{"1":`,
		"array":        `["A"]`,
		"empty object": `{}`,
		"number value": `{"1": 3}`,
		"nested":       `{"1": {"a": "b"}}`,
		"mixed list":   `{"1": ["A", 2]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseAnswers([]byte(payload))
			require.ErrorIs(t, err, ErrInvalidAnswers)
		})
	}
}

func TestAnswerLettersNormalises(t *testing.T) {
	require.Equal(t, []string{"A", "C"}, answerLetters(" c, a ,A"))
	require.Equal(t, []string{"B", "D"}, answerLetters([]interface{}{"d", "B"}))
	require.Empty(t, answerLetters(nil))
}

func TestScoreAnswersSkipsFreeText(t *testing.T) {
	questions := []models.QuizQuestion{
		{ID: 1, CorrectAnswer: "A"},
		{ID: 2, CorrectAnswer: "B,D", MultiSelect: true},
		{ID: 3},
		{ID: 4, CorrectAnswer: "C"},
	}
	answers := map[string]interface{}{
		"1": "a",
		"2": []interface{}{"D", "B"},
		"3": "free text",
		"4": "B",
	}

	correct, gradable := scoreAnswers(questions, answers)
	require.Equal(t, 2, correct)
	require.Equal(t, 3, gradable)
}
