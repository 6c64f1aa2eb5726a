package resumes

import (
	"errors"
	"net/http"

	"resume-processor/internal/extract"
	"resume-processor/internal/llm"
	"resume-processor/internal/shared/storage/object"
)

var (
	ErrMissingInput        = errors.New("missing input")
	ErrInvalidModelJSON    = errors.New("invalid model json")
	ErrSummarizationFailed = errors.New("summarization failed")
	ErrPersistenceFailed   = errors.New("persistence failed")
	ErrNotFound            = errors.New("not found")
)

const (
	CodeMissingInput            = "MISSING_INPUT"
	CodeFileTooLarge            = "FILE_TOO_LARGE"
	CodeUnsupportedFileType     = "UNSUPPORTED_FILE_TYPE"
	CodeLegacyFormatUnsupported = "LEGACY_FORMAT_UNSUPPORTED"
	CodeNoReadableText          = "NO_READABLE_TEXT"
	CodeTextTooShort            = "TEXT_TOO_SHORT"
	CodeCompletionAPIError      = "COMPLETION_API_ERROR"
	CodeInvalidModelJSON        = "INVALID_MODEL_JSON"
	CodeSummarizationFailed     = "SUMMARIZATION_FAILED"
	CodePersistenceFailed       = "PERSISTENCE_FAILED"
	CodeFetchFailed             = "FETCH_FAILED"
	CodeServiceNotConfigured    = "SERVICE_NOT_CONFIGURED"
	CodeNotFound                = "NOT_FOUND"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeRateLimited             = "RATE_LIMITED"
	CodeUnknown                 = "UNKNOWN_ERROR"
)

// Failure is the HTTP shape of a pipeline error.
type Failure struct {
	Status  int
	Code    string
	Message string
}

// classification is checked in order; wrappers come before the errors they wrap.
var classification = []struct {
	target  error
	failure Failure
}{
	{ErrMissingInput, Failure{http.StatusBadRequest, CodeMissingInput, ""}},
	{object.ErrFileTooLarge, Failure{http.StatusRequestEntityTooLarge, CodeFileTooLarge, "File size exceeds the maximum allowed size"}},
	{object.ErrFetchFailed, Failure{http.StatusBadGateway, CodeFetchFailed, "Could not retrieve the uploaded file"}},
	{extract.ErrUnsupportedFileType, Failure{http.StatusUnsupportedMediaType, CodeUnsupportedFileType, "Unsupported file type. Please upload a PDF, DOCX or TXT file"}},
	{extract.ErrLegacyFormatUnsupported, Failure{http.StatusBadRequest, CodeLegacyFormatUnsupported, "Legacy .doc files are not supported. Please save the document as DOCX or PDF and upload again"}},
	{extract.ErrNoReadableText, Failure{http.StatusBadRequest, CodeNoReadableText, "No readable text found. Scanned or image-only documents are not supported"}},
	{extract.ErrTextTooShort, Failure{http.StatusBadRequest, CodeTextTooShort, ""}},
	{ErrSummarizationFailed, Failure{http.StatusBadGateway, CodeSummarizationFailed, "Failed to generate the resume summary"}},
	{ErrInvalidModelJSON, Failure{http.StatusBadGateway, CodeInvalidModelJSON, "The AI service returned malformed structured data"}},
	{ErrPersistenceFailed, Failure{http.StatusInternalServerError, CodePersistenceFailed, "AI analysis completed, but saving the result failed"}},
	{llm.ErrNoProvider, Failure{http.StatusServiceUnavailable, CodeServiceNotConfigured, "AI service not configured. Please contact the administrator"}},
	{llm.ErrCompletionAPI, Failure{http.StatusBadGateway, CodeCompletionAPIError, "The AI service request failed"}},
	{ErrNotFound, Failure{http.StatusNotFound, CodeNotFound, "Resume not found"}},
}

// Classify maps an error to its status, code and client message. An empty
// message in the table means the error text itself is user-facing.
func Classify(err error) Failure {
	for _, c := range classification {
		if errors.Is(err, c.target) {
			f := c.failure
			if f.Message == "" {
				f.Message = err.Error()
			}
			return f
		}
	}
	return Failure{http.StatusInternalServerError, CodeUnknown, "An unexpected error occurred while processing the resume"}
}
