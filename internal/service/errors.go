package service

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrForbidden indicates the caller may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrDocumentNotFound indicates the document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrFileRequired indicates an upload without a file.
	ErrFileRequired = errors.New("file is required")
	// ErrFileTooLarge indicates the upload exceeded the configured limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUnsupportedFileType indicates a non-PDF upload.
	ErrUnsupportedFileType = errors.New("only PDF documents are accepted")
	// ErrDocumentExists indicates no free stored file name could be reserved.
	ErrDocumentExists = errors.New("document file name already in use")
	// ErrTitleRequired indicates an empty title after sanitization.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidDocumentName indicates a read-status key that is blank, padded or too long.
	ErrInvalidDocumentName = errors.New("invalid document name")
	// ErrQuizNotFound indicates the quiz kind does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizExists indicates the quiz slug is already registered.
	ErrQuizExists = errors.New("quiz already exists")
	// ErrInvalidSlug indicates a slug outside [a-z0-9-].
	ErrInvalidSlug = errors.New("quiz slug must contain only lowercase letters, digits and dashes")
	// ErrQuestionNotFound indicates the question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidAnswerKey indicates a correct answer that does not reference the options.
	ErrInvalidAnswerKey = errors.New("correct answer must reference existing options")
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicateSubmission indicates the user already submitted this quiz.
	ErrDuplicateSubmission = errors.New("submission already exists")
	// ErrInvalidAnswers indicates a malformed answer payload.
	ErrInvalidAnswers = errors.New("invalid answers")
)
