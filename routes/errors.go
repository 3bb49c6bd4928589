package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"avease/models"
)

var statusOf = map[models.Kind]int{
	models.KindValidation:          http.StatusBadRequest,
	models.KindTypeMismatch:        http.StatusBadRequest,
	models.KindDuplicateMembership: http.StatusConflict,
	models.KindForbidden:           http.StatusForbidden,
	models.KindNotFound:            http.StatusNotFound,
	models.KindConflictRetry:       http.StatusConflict,
}

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  []models.FieldError `json:"fields,omitempty"`
}

// fail writes err as the uniform error body. Errors without a domain kind
// are logged and hidden behind a generic 500.
func (d *deps) fail(c *gin.Context, err error) {
	var e *models.Error
	if errors.As(err, &e) {
		if status, ok := statusOf[e.Kind]; ok {
			c.AbortWithStatusJSON(status, errorBody{Error: string(e.Kind), Message: e.Message, Fields: e.Fields})
			return
		}
	}
	_ = c.Error(err)
	d.log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("route", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
		Error:   "internal",
		Message: "Something went wrong. Try again later.",
	})
}

// bindError turns a gin binding failure into a validation error naming
// the offending JSON fields.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]models.FieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, models.FieldError{Field: fe.Field(), Reason: reasonFor(fe)})
		}
		return models.Validation(fields...)
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return models.InvalidField(te.Field, "expected "+te.Type.String()+", got "+te.Value)
	}
	return &models.Error{Kind: models.KindValidation, Message: "Could not parse request data.", Cause: err}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "at most " + fe.Param() + " characters"
	case "email":
		return "must be an email address"
	case "min":
		return "at least " + fe.Param() + " characters"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

var registerTagNames sync.Once

// useJSONNames makes validator report fields by their JSON name.
func useJSONNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
