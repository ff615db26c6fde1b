package handler

import (
	"fmt"

	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const isoDateTag = "isodate"

func isoDate(fl validator.FieldLevel) bool {
	_, err := model.ParseDate(fl.Field().String())
	return err == nil
}

// RegisterValidation Inspiration: https://blog.logrocket.com/gin-binding-in-go-a-tutorial-with-examples/
func RegisterValidation() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation(isoDateTag, isoDate)
	}
	return fmt.Errorf("error getting validation engine")
}
