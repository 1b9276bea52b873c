package handler

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/storage"
	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// handleError maps service errors onto the response envelope. Unexpected
// errors are logged and answered with a generic message.
func handleError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Abort(c, response.ValidationFailed(ve.Fields))
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Abort(c, response.Unauthorized("Invalid credentials"))
	case errors.Is(err, domain.ErrForbidden):
		response.Abort(c, response.Forbidden(""))
	case errors.Is(err, domain.ErrNotFound):
		response.Abort(c, response.NotFound(""))
	case errors.Is(err, domain.ErrCategoryInUse):
		response.Abort(c, response.Error(response.ErrCodeInUse, "Category is still used by menu items"))
	case errors.Is(err, domain.ErrConflict):
		response.Abort(c, response.Error(response.ErrCodeConflict, "Resource already exists"))
	case errors.Is(err, domain.ErrInvalidTransition):
		response.Abort(c, response.Error(response.ErrCodeInvalidTransition, err.Error()))
	case errors.Is(err, storage.ErrTooLarge):
		response.Abort(c, response.Error(response.ErrCodePayloadTooLarge, "Image is too large"))
	default:
		logger.Get().WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.Abort(c, response.InternalError(""))
	}
}

// bindError turns a gin binding failure into field-level details
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.Abort(c, response.BadRequest("Invalid request body"))
		return
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[jsonName(fe.Field())] = describe(fe)
	}
	response.Abort(c, response.ValidationFailed(details))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "is invalid"
}

// jsonName lowercases the first letter: "HotelName" -> "hotelName"
func jsonName(field string) string {
	if field == "" {
		return field
	}
	r := []rune(field)
	r[0] = unicode.ToLower(r[0])
	return strings.TrimSpace(string(r))
}
