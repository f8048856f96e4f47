package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"classattend/internal/attendance"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags to gin's validator:
// attendance_status accepts only the enumerated statuses.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
			return attendance.Status(fl.Field().String()).Valid()
		})
	})
}
