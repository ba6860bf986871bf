package model

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the cross-field rules that tag-based
// validation cannot express. Time strings are zero-padded HH:MM, so the
// ordering check is a plain string comparison.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(CreateAppointmentRequest)
		if req.EndTime <= req.StartTime {
			sl.ReportError(req.EndTime, "end_time", "EndTime", "gtstart", "")
		}
	}, CreateAppointmentRequest{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(UpdateAppointmentRequest)
		if req.StartTime != nil && req.EndTime != nil && *req.EndTime <= *req.StartTime {
			sl.ReportError(req.EndTime, "end_time", "EndTime", "gtstart", "")
		}
	}, UpdateAppointmentRequest{})
}
