package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/services/scheduling"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// ErrInvalidRequest wraps every validation failure
	ErrInvalidRequest = errors.New("invalid request")
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validators for enums
	if err := Validate.RegisterValidation("task_tag", validateTaskTag); err != nil {
		panic(fmt.Sprintf("failed to register task_tag validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("energy_stage", validateEnergyStage); err != nil {
		panic(fmt.Sprintf("failed to register energy_stage validator: %v", err))
	}
	if err := Validate.RegisterValidation("item_type", validateItemType); err != nil {
		panic(fmt.Sprintf("failed to register item_type validator: %v", err))
	}
}

func validateTaskTag(fl validator.FieldLevel) bool {
	return models.TaskTag(fl.Field().String()).IsKnown()
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return models.TaskStatus(fl.Field().String()).IsKnown()
}

func validateEnergyStage(fl validator.FieldLevel) bool {
	return models.EnergyStage(fl.Field().String()).IsKnown()
}

func validateItemType(fl validator.FieldLevel) bool {
	switch models.ItemType(fl.Field().String()) {
	case models.ItemTypeTask, models.ItemTypeEvent:
		return true
	default:
		return false
	}
}

// ValidatePlanRequest checks a single-task request. Errors wrap ErrInvalidRequest
// and, for field failures, validator.ValidationErrors. Every Validate* function
// sanitizes titles in place before checking them.
func ValidatePlanRequest(req *scheduling.TaskRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	sanitizeTask(&req.Task)
	sanitizeItems(req.Schedule)
	return check(req)
}

// ValidateChunksRequest checks a multi-chunk request
func ValidateChunksRequest(req *scheduling.ChunksRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	for i := range req.Chunks {
		sanitizeTask(&req.Chunks[i])
	}
	sanitizeItems(req.Schedule)
	return check(req)
}

// ValidateRescheduleRequest checks a reschedule decision request
func ValidateRescheduleRequest(req *scheduling.RescheduleRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	sanitizeTask(&req.Task)
	return check(req)
}

// ValidateCognitiveLoadRequest checks a cognitive-load request
func ValidateCognitiveLoadRequest(req *scheduling.CognitiveLoadRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	sanitizeItems(req.Schedule)
	return check(req)
}

// titles end up quoted in the planner note
func sanitizeTask(task *models.Task) {
	task.Title = SanitizeText(task.Title)
	for i := range task.Chunks {
		sanitizeTask(&task.Chunks[i])
	}
}

func sanitizeItems(items []models.ScheduleItem) {
	for i := range items {
		items[i].Title = SanitizeText(items[i].Title)
	}
}

func check(v any) error {
	if err := Validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Describe renders validation failures as short field messages suitable for a response body
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, describeField(fe))
	}
	return strings.Join(parts, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is not a valid %s", field, fe.Tag())
	}
}

// fieldPath drops the root struct name and the embedded PlanInput from a validator namespace
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.TrimPrefix(ns, "PlanInput.")
}

// SanitizeText trims whitespace and removes control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
