package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"todoapi/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Error kinds used in the envelope.
const (
	kindValidation   = "ValidationError"
	kindNotFound     = "NotFound"
	kindUnauthorized = "Unauthorized"
	kindInternal     = "Internal"
)

func init() {
	// Report violations under the wire names (json/form tags), not the Go
	// struct field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// respondError writes the uniform failure envelope.
func respondError(c *gin.Context, status int, kind string, detail any) {
	c.JSON(status, dto.ErrorResponse{
		Error:  kind,
		Detail: detail,
		Path:   c.Request.URL.Path,
	})
}

// respondValidationError maps a binding failure to 422 with one detail
// entry per violated field, not just the first.
func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(c, http.StatusUnprocessableEntity, kindValidation, err.Error())
		return
	}
	detail := make([]dto.FieldError, 0, len(verrs))
	for _, e := range verrs {
		detail = append(detail, dto.FieldError{
			Field:   e.Field(),
			Rule:    e.Tag(),
			Message: e.Error(),
		})
	}
	respondError(c, http.StatusUnprocessableEntity, kindValidation, detail)
}
