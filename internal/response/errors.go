package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Pipeline ──────────────────────────────────────────────────────
	ErrChunking      ErrCode = "CHUNKING_ERROR"
	ErrLLMTimeout    ErrCode = "LLM_TIMEOUT"
	ErrLLMConnection ErrCode = "LLM_CONNECTION_ERROR"
	ErrLLMResponse   ErrCode = "LLM_RESPONSE_ERROR"
	ErrJSONParse     ErrCode = "JSON_PARSE_ERROR"
	ErrCache         ErrCode = "CACHE_ERROR"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrArchiveUnavailable ErrCode = "ARCHIVE_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrChunking:
		return "The provided text could not be chunked."
	case ErrLLMTimeout:
		return "The language model did not respond in time."
	case ErrLLMConnection:
		return "The language model service is unreachable."
	case ErrLLMResponse:
		return "The language model returned an unusable response."
	case ErrJSONParse:
		return "The language model output could not be parsed."
	case ErrCache:
		return "The cache store operation failed."
	case ErrNotFound:
		return "Resource not found."
	case ErrArchiveUnavailable:
		return "The question archive is not available."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
