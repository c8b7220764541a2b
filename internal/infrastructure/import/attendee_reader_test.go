package csvimport

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAttendees(t *testing.T) {
	t.Run("Valid file with header", func(t *testing.T) {
		csv := "firstname,surname,email\nJane,Doe,jane@example.com\nJohn,Roe,john@example.com\n"
		sheet, err := ReadAttendees(strings.NewReader(csv), 0)
		require.NoError(t, err)

		assert.Equal(t, 2, sheet.TotalRows)
		require.Len(t, sheet.Records, 2)
		assert.Equal(t, AttendeeRecord{Line: 2, Firstname: "Jane", Surname: "Doe", Email: "jane@example.com"}, sheet.Records[0])
		assert.False(t, sheet.Errors.HasErrors())
	})

	t.Run("Row errors are collected with line numbers", func(t *testing.T) {
		csv := strings.Join([]string{
			"firstname,surname,email",
			"Jane,Doe,jane@example.com",
			",Roe,john@example.com",
			"Ann,Lee,not-an-email",
			"Bob,,",
		}, "\n")
		sheet, err := ReadAttendees(strings.NewReader(csv), 0)
		require.NoError(t, err)

		require.Len(t, sheet.Records, 1)
		assert.Equal(t, 4, sheet.TotalRows)

		errs := sheet.Errors.Errors()
		require.Len(t, errs, 4)
		assert.Equal(t, RowError{Row: 3, Column: "firstname", Code: ErrCodeImportRequiredField, Message: "field 'firstname' is required"}, errs[0])
		assert.Equal(t, 4, errs[1].Row)
		assert.Equal(t, "email", errs[1].Column)
		assert.Equal(t, ErrCodeImportInvalidFormat, errs[1].Code)
		assert.Equal(t, "not-an-email", errs[1].Value)
		assert.Equal(t, 5, errs[2].Row)
		assert.Equal(t, "surname", errs[2].Column)
		assert.Equal(t, "email", errs[3].Column)
	})

	t.Run("Error list is capped", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 150; i++ {
			fmt.Fprintf(&sb, "Jane,Doe,bad%d\n", i)
		}
		sheet, err := ReadAttendees(strings.NewReader(sb.String()), 0)
		require.NoError(t, err)

		assert.Equal(t, DefaultMaxErrors, sheet.Errors.Count())
		assert.Equal(t, 150, sheet.Errors.TotalCount())
		assert.True(t, sheet.Errors.IsTruncated())
		assert.Empty(t, sheet.Records)
	})

	t.Run("Empty file", func(t *testing.T) {
		_, err := ReadAttendees(strings.NewReader(""), 0)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}

func TestAttendeeRecord_Key(t *testing.T) {
	a := AttendeeRecord{Firstname: "Jane", Surname: "Doe", Email: "JANE@example.com"}
	b := AttendeeRecord{Firstname: "jane", Surname: "DOE", Email: "jane@EXAMPLE.com"}
	c := AttendeeRecord{Firstname: "Jane", Surname: "Doe", Email: "other@example.com"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestErrorCollection_String(t *testing.T) {
	ec := NewErrorCollection(1)
	assert.Equal(t, "no errors", ec.String())

	ec.AddRequiredError(2, "email")
	ec.AddRequiredError(3, "email")
	out := ec.String()
	assert.Contains(t, out, "2 error(s) found (showing first 1)")
	assert.Contains(t, out, "row 2, column 'email': field 'email' is required")
}
