package bookings

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/padel-booking/internal/formats"
	"github.com/wolfman30/padel-booking/internal/schedule"
)

// StatusConfirmed is the only status a booking is created with.
const StatusConfirmed = "confirmed"

// Booking is a persisted court reservation.
type Booking struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Phone      string    `json:"phone" bson:"phone"`
	Date       string    `json:"date" bson:"date"`
	Time       string    `json:"time" bson:"time"`
	FormatType string    `json:"format_type" bson:"format_type"`
	Status     string    `json:"status" bson:"status"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Slot returns the schedule key the booking occupies.
func (b *Booking) Slot() schedule.SlotKey {
	return schedule.SlotKey{Date: b.Date, Time: b.Time}
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string `json:"time" validate:"required,datetime=15:04"`
	FormatType string `json:"format_type" validate:"required,padel_format"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("padel_format", func(fl validator.FieldLevel) bool {
		return formats.Valid(fl.Field().String())
	})
	return v
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateBookingRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.FormatType = strings.TrimSpace(r.FormatType)
}

// Validate normalizes the request and reports the first invalid field as a
// *ValidationError.
func (r *CreateBookingRequest) Validate() error {
	r.Normalize()
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		if fe.Param() == schedule.TimeLayout {
			return fe.Field() + " must be a time in HH:MM form"
		}
		return fe.Field() + " must be a date in YYYY-MM-DD form"
	case "padel_format":
		return fe.Field() + " must be one of " + strings.Join(formats.Values(), ", ")
	default:
		return fe.Field() + " is invalid"
	}
}
