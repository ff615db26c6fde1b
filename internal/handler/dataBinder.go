package handler

import (
	"errors"
	"fmt"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/pkg/sanitize"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FormBinder binds an HTML form submission into req. Messages of the returned errors are meant
// for a flash message.
func FormBinder(c *gin.Context, req any) error {
	if c.ContentType() != binding.MIMEPOSTForm && c.ContentType() != binding.MIMEMultipartPOSTForm {
		return errdef.NewBadRequest("%s only accepts form submissions", c.FullPath())
	}

	if err := c.ShouldBind(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return errdef.NewBadRequest("Validation Error: %s", describe(validationErrors[0]))
		}
		return errdef.NewBadRequest("Validation Error: %v", err)
	}

	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s value(s).", field, fe.Param())
	case isoDateTag:
		return fmt.Sprintf("%q is not a valid date.", sanitize.Excerpt(fmt.Sprint(fe.Value()), sanitize.ExcerptLength))
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}
