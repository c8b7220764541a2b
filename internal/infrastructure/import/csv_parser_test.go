package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped before header detection", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFfirstname,surname,email\nJane,Doe,jane@example.com"), AttendeeColumns)
		require.NoError(t, err)
		assert.True(t, parser.HasHeader())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Jane", row.Get(ColumnFirstname))
		assert.Equal(t, 2, row.LineNumber)
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""), AttendeeColumns)
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Whitespace only file is empty", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("\n \n"), AttendeeColumns)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Invalid UTF-8 returns error", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("J\xffne,Doe,jane@example.com"), AttendeeColumns)
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Columns are required", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("a,b"), nil)
		assert.Error(t, err)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("Jane;Doe;jane@example.com"), AttendeeColumns, WithDelimiter(';'))
		require.NoError(t, err)

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Doe", row.Get(ColumnSurname))
	})
}

func TestCSVParser_HeaderDetection(t *testing.T) {
	t.Run("Header matched case-insensitively", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(" FirstName , SURNAME,Email\nJane,Doe,jane@example.com"), AttendeeColumns)
		require.NoError(t, err)
		assert.True(t, parser.HasHeader())

		rows, err := parser.ReadAllRows()
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("No header keeps first row as data", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("Jane,Doe,jane@example.com\nJohn,Roe,john@example.com"), AttendeeColumns)
		require.NoError(t, err)
		assert.False(t, parser.HasHeader())

		rows, err := parser.ReadAllRows()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 1, rows[0].LineNumber)
		assert.Equal(t, "Jane", rows[0].Get(ColumnFirstname))
		assert.Equal(t, 2, rows[1].LineNumber)
	})

	t.Run("Header in wrong order is data", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("surname,firstname,email"), AttendeeColumns)
		require.NoError(t, err)
		assert.False(t, parser.HasHeader())
	})
}

func TestCSVParser_ReadRow(t *testing.T) {
	t.Run("Missing trailing fields are empty", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("Jane"), AttendeeColumns)
		require.NoError(t, err)

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "", row.Get(ColumnSurname))
		assert.Equal(t, "", row.Get(ColumnEmail))
	})

	t.Run("Fields are trimmed", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("  Jane\t,  Doe , jane@example.com "), AttendeeColumns)
		require.NoError(t, err)

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Jane", row.Get(ColumnFirstname))
		assert.Equal(t, "Doe", row.Get(ColumnSurname))
		assert.Equal(t, "jane@example.com", row.Get(ColumnEmail))
	})

	t.Run("EOF after last row", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("firstname,surname,email\n"), AttendeeColumns)
		require.NoError(t, err)

		_, err = parser.ReadRow()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Empty rows are skipped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("Jane,Doe,jane@example.com\n,,\nJohn,Roe,john@example.com"), AttendeeColumns)
		require.NoError(t, err)

		rows, err := parser.ReadAllRows()
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Equal(t, 3, parser.TotalRows())
	})
}

func TestTrimSpaces(t *testing.T) {
	assert.Equal(t, "Jane", trimSpaces("  Jane \r\n"))
	assert.Equal(t, "", trimSpaces("  \t"))
	assert.Equal(t, "a b", trimSpaces(" a b "))
}
