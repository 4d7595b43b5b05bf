package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldDetail describes one invalid request field in an error response.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope every error reply uses, matching the API
// contract of the original deployment.
type ErrorResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Error   string        `json:"error,omitempty"`
	Details []FieldDetail `json:"details,omitempty"`
}

// ValidateRequest runs struct-tag validation and returns one detail per
// violated field, or nil when the request is valid.
func ValidateRequest(obj any) []FieldDetail {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var details []FieldDetail
	for _, err := range err.(validator.ValidationErrors) {
		details = append(details, FieldDetail{
			Field:   err.Field(),
			Message: getErrorMsg(err),
		})
	}
	return details
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "datetime":
		return "Invalid date/time format"
	default:
		return "Invalid value"
	}
}

// RespondWithValidationError writes a 400 with per-field details.
func RespondWithValidationError(c *gin.Context, details []FieldDetail) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Message: "Invalid request data",
		Error:   "VALIDATION_ERROR",
		Details: details,
	})
}

// RespondWithError writes a JSON error envelope with the given status and
// machine-readable code.
func RespondWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Message: message,
		Error:   code,
	})
}
