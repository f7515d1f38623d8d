package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/induction-api/internal/models"
)

const answersSchema = `{
  "type": "object",
  "minProperties": 1,
  "propertyNames": {"minLength": 1},
  "additionalProperties": {
    "oneOf": [
      {"type": "string"},
      {"type": "array", "items": {"type": "string"}}
    ]
  }
}`

var answersValidator = jsonschema.MustCompileString("induction://answers.schema.json", answersSchema)

// parseAnswers validates a raw answer payload and returns it keyed by question.
// Values are either a single string or a list of strings.
func parseAnswers(raw []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrInvalidAnswers
	}

	var decoded interface{}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	if err := answersValidator.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	answers, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidAnswers
	}
	return answers, nil
}

// answerLetters normalises "a, C" or ["C","A"] into a sorted, de-duplicated letter set.
func answerLetters(value interface{}) []string {
	var parts []string
	switch v := value.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, strings.Split(s, ",")...)
			}
		}
	case []string:
		for _, item := range v {
			parts = append(parts, strings.Split(item, ",")...)
		}
	}

	seen := make(map[string]struct{}, len(parts))
	letters := make([]string, 0, len(parts))
	for _, part := range parts {
		letter := strings.ToUpper(strings.TrimSpace(part))
		if letter == "" {
			continue
		}
		if _, dup := seen[letter]; dup {
			continue
		}
		seen[letter] = struct{}{}
		letters = append(letters, letter)
	}
	sort.Strings(letters)
	return letters
}

// scoreAnswers counts correct answers among questions that carry an answer key.
// Answers are matched by question id.
func scoreAnswers(questions []models.QuizQuestion, answers map[string]interface{}) (correct, gradable int) {
	for _, question := range questions {
		if !question.IsGradable() {
			continue
		}
		gradable++

		given, ok := answers[strconv.FormatUint(uint64(question.ID), 10)]
		if !ok {
			continue
		}
		if strings.Join(answerLetters(given), ",") == strings.Join(answerLetters(question.CorrectAnswer), ",") {
			correct++
		}
	}
	return correct, gradable
}
