package validator

import (
	"errors"
	"fmt"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/timeslot"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Fields maps field names to messages for error details.
func (v ValidationErrors) Fields() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return fields
}

// Limits bounds the numeric inputs of hold operations.
type Limits struct {
	MinDurationMin   int
	MaxDurationMin   int
	MaxExtendMinutes int
}

type HoldValidator struct {
	validate *validator.Validate
	limits   Limits
	logger   *logger.Logger
}

func NewHoldValidator(log *logger.Logger, limits Limits) *HoldValidator {
	v := validator.New()

	if err := v.RegisterValidation("hh_mm", validateClock); err != nil {
		log.Fatal("Failed to register 'hh_mm' validator",
			"error", err,
		)
	}

	log.Info("Hold validator initialized successfully")

	return &HoldValidator{
		validate: v,
		limits:   limits,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := timeslot.ParseClock(fl.Field().String())
	return err == nil
}

// ValidateReserve expects defaults to be applied already.
func (v *HoldValidator) ValidateReserve(req *model.ReserveRequest) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}

	if req.DurationMin < v.limits.MinDurationMin || req.DurationMin > v.limits.MaxDurationMin {
		return ValidationErrors{{
			Field:   "DurationMin",
			Message: fmt.Sprintf("duration_min must be between %d and %d", v.limits.MinDurationMin, v.limits.MaxDurationMin),
		}}
	}

	if _, err := timeslot.ParseDate(req.Date); err != nil {
		return ValidationErrors{{Field: "Date", Message: err.Error()}}
	}

	if _, err := timeslot.FromClock(req.StartTime, req.DurationMin); err != nil {
		return ValidationErrors{{Field: "StartTime", Message: err.Error()}}
	}

	return nil
}

func (v *HoldValidator) ValidateConfirm(req *model.ConfirmRequest) error {
	return v.validateStruct(req)
}

func (v *HoldValidator) ValidateOwner(req *model.OwnerRequest) error {
	return v.validateStruct(req)
}

// ValidateExtend expects defaults to be applied already.
func (v *HoldValidator) ValidateExtend(req *model.ExtendRequest) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}
	if req.ExtraMinutes < 1 || req.ExtraMinutes > v.limits.MaxExtendMinutes {
		return ValidationErrors{{
			Field:   "ExtraMinutes",
			Message: fmt.Sprintf("extra_minutes must be between 1 and %d", v.limits.MaxExtendMinutes),
		}}
	}
	return nil
}

func (v *HoldValidator) ValidateAppointment(appointment *model.Appointment) error {
	return v.validateStruct(appointment)
}

func (v *HoldValidator) ValidateListQuery(doctorID, date string) error {
	var errs ValidationErrors
	if err := v.validate.Var(doctorID, "required,mongodb"); err != nil {
		errs = append(errs, ValidationError{Field: "doctor_id", Message: "doctor_id must be a valid MongoDB ObjectID"})
	}
	if _, err := timeslot.ParseDate(date); err != nil {
		errs = append(errs, ValidationError{Field: "date", Message: err.Error()})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *HoldValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *HoldValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "hh_mm":
			message = fmt.Sprintf("%s must be a time in HH:MM format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
