package csvimport

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Attendee CSV columns, in file order
const (
	ColumnFirstname = "firstname"
	ColumnSurname   = "surname"
	ColumnEmail     = "email"
)

// AttendeeColumns is the column layout of attendee import files
var AttendeeColumns = []string{ColumnFirstname, ColumnSurname, ColumnEmail}

// AttendeeRecord is one valid attendee row
type AttendeeRecord struct {
	Line      int    `json:"line"`
	Firstname string `json:"firstname" validate:"required,max=200"`
	Surname   string `json:"surname" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email,max=200"`
}

// Key identifies a record case-insensitively by name and email
func (r AttendeeRecord) Key() string {
	return strings.ToLower(r.Firstname) + "\x00" + strings.ToLower(r.Surname) + "\x00" + strings.ToLower(r.Email)
}

// RowValidator checks rows with struct tags
type RowValidator struct {
	validate *validator.Validate
}

// NewRowValidator creates a validator that reports fields by their JSON name
func NewRowValidator() *RowValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RowValidator{validate: v}
}

// ValidateAttendee validates rec and records failures in ec
func (v *RowValidator) ValidateAttendee(rec AttendeeRecord, ec *ErrorCollection) bool {
	err := v.validate.Struct(rec)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ec.Add(NewRowError(rec.Line, "", ErrCodeImportValidation, err.Error()))
		return false
	}
	for _, fe := range verrs {
		column := fe.Field()
		switch fe.Tag() {
		case "required":
			ec.AddRequiredError(rec.Line, column)
		case "email":
			re := NewRowError(rec.Line, column, ErrCodeImportInvalidFormat, "invalid email address")
			re.Value = fmt.Sprint(fe.Value())
			ec.Add(re)
		case "max":
			ec.Add(NewRowError(rec.Line, column, ErrCodeImportInvalidLength,
				fmt.Sprintf("length must be at most %s", fe.Param())))
		default:
			ec.Add(NewRowError(rec.Line, column, ErrCodeImportValidation,
				fmt.Sprintf("failed '%s' validation", fe.Tag())))
		}
	}
	return false
}
