package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Iron-Ham/cohort/internal/errors"
)

// Table formats understood by Read.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Options describes where a usage table lives and how to interpret it.
type Options struct {
	// Path of the table file.
	Path string `validate:"required"`
	// Sheet selects the worksheet of a spreadsheet. Empty means the first one.
	Sheet string
	// ComponentColumn lists terms that must all appear in the header of the
	// component identifier column. The first matching header wins.
	ComponentColumn []string `validate:"min=1,dive,required"`
	// FirstResourceColumn and LastResourceColumn select the resource columns
	// by 0-based position among the columns other than the component
	// column. Both ends are inclusive; a negative LastResourceColumn means
	// through the last column.
	FirstResourceColumn int `validate:"gte=0"`
	LastResourceColumn  int
	// TotalMarker drops rows whose identifier contains it, ignoring case.
	// Empty keeps every row.
	TotalMarker string
	// Format forces csv or xlsx. Empty means detect by extension.
	Format string `validate:"omitempty,oneof=csv xlsx"`
}

// DefaultOptions returns the options used for inventory exports: a
// "Component Name" column, every other column a resource, and subtotal rows
// dropped.
func DefaultOptions(path string) Options {
	return Options{
		Path:               path,
		ComponentColumn:    []string{"Component", "Name"},
		LastResourceColumn: -1,
		TotalMarker:        "total",
	}
}

var validate = validator.New()

// Validate reports the first invalid option as an *errors.ValidationError.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError("invalid ingest options").WithCause(err)
	}
	fe := fieldErrs[0]
	return errors.NewValidationError(fmt.Sprintf("failed %q constraint", fe.Tag())).
		WithField(fe.Namespace()).
		WithValue(fe.Value())
}

// format resolves the table format from Format or the file extension.
func (o Options) format() (string, error) {
	if o.Format != "" {
		return o.Format, nil
	}
	switch strings.ToLower(filepath.Ext(o.Path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", errors.NewInputError(fmt.Sprintf("cannot tell the table format of %s", filepath.Base(o.Path)), errors.ErrUnreadableInput)
}
