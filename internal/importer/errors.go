package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFormat is returned when a format id is not registered
	ErrUnknownFormat = errors.New("unknown import format")
	// ErrInvalidSelection is returned when a selection references rows that cannot be imported
	ErrInvalidSelection = errors.New("invalid row selection")
	// ErrUnreadableFile wraps decoder failures on corrupt or mislabelled uploads
	ErrUnreadableFile = errors.New("unreadable file")
)

// UnsupportedFileTypeError is returned before any parsing when the upload kind
// does not match what the import flow accepts.
type UnsupportedFileTypeError struct {
	Filename string
	Accepted []FileKind
}

func (e *UnsupportedFileTypeError) Error() string {
	kinds := make([]string, len(e.Accepted))
	for i, k := range e.Accepted {
		kinds[i] = "." + string(k)
	}
	return fmt.Sprintf("unsupported file type %q: expected one of %s", e.Filename, strings.Join(kinds, ", "))
}

// EmptyOrHeaderOnlyFileError is returned when a file has no data rows under its header.
type EmptyOrHeaderOnlyFileError struct {
	Rows int
}

func (e *EmptyOrHeaderOnlyFileError) Error() string {
	if e.Rows == 0 {
		return "file is empty"
	}
	return "file contains a header row but no data rows"
}

// MissingColumnsError names every required field that no header resolved to.
type MissingColumnsError struct {
	Format FormatID
	Fields []string
	Labels []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s file is missing required columns: %s", e.Format, strings.Join(e.Labels, ", "))
}

// QuotaAlreadyExceededError blocks an import outright: the plan limit is already reached.
type QuotaAlreadyExceededError struct {
	Resource Resource
	Current  int
	Limit    int
}

func (e *QuotaAlreadyExceededError) Error() string {
	return fmt.Sprintf("%s quota already reached (%d of %d)", e.Resource, e.Current, e.Limit)
}

// QuotaWouldBeExceededError is a recoverable decision point: the caller may
// truncate the selection to RemainingCapacity rows or cancel.
type QuotaWouldBeExceededError struct {
	Resource          Resource
	Current           int
	Limit             int
	Selected          int
	RemainingCapacity int
}

func (e *QuotaWouldBeExceededError) Error() string {
	return fmt.Sprintf("importing %d rows would exceed the %s quota (%d of %d used, %d remaining)",
		e.Selected, e.Resource, e.Current, e.Limit, e.RemainingCapacity)
}

// PersistedDuplicateError reports rows whose keys were imported before.
type PersistedDuplicateError struct {
	Count     int
	Remaining int
	Sample    []string
}

func (e *PersistedDuplicateError) Error() string {
	return fmt.Sprintf("%d rows were already imported (e.g. %s)", e.Count, strings.Join(e.Sample, ", "))
}
