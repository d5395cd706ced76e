package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"donation-form/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request types.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			_, err := models.ParsePaymentMethod(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}
