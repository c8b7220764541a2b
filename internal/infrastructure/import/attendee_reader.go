package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// AttendeeSheet is the outcome of reading an attendee file. Records holds the
// valid rows in file order; invalid rows are only reported in Errors.
type AttendeeSheet struct {
	Records   []AttendeeRecord
	TotalRows int
	Errors    *ErrorCollection
}

// ReadAttendees parses an attendee CSV. File-level problems (empty, not UTF-8,
// unreadable) are returned as errors; row problems are collected.
func ReadAttendees(r io.Reader, maxErrors int) (*AttendeeSheet, error) {
	parser, err := NewCSVParser(r, AttendeeColumns)
	if err != nil {
		return nil, err
	}

	sheet := &AttendeeSheet{Errors: NewErrorCollection(maxErrors)}
	v := NewRowValidator()

	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				sheet.Errors.Add(NewRowError(parser.CurrentRow(), "", ErrCodeImportMalformedRow, err.Error()))
				continue
			}
			return nil, fmt.Errorf("read attendee file: %w", err)
		}
		if row.IsEmpty() {
			continue
		}
		sheet.TotalRows++

		rec := AttendeeRecord{
			Line:      row.LineNumber,
			Firstname: row.Get(ColumnFirstname),
			Surname:   row.Get(ColumnSurname),
			Email:     row.Get(ColumnEmail),
		}
		if v.ValidateAttendee(rec, sheet.Errors) {
			sheet.Records = append(sheet.Records, rec)
		}
	}

	return sheet, nil
}
