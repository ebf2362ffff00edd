package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiLeBeiBei       InstitutionName = "迪乐贝贝"
	ImportExportBank InstitutionName = "进出口银行"
	Other            InstitutionName = "其他"
)

type (
	InstitutionName string

	// Institution is either one of the fixed named institutions or a
	// free-text custom label, which implies the 其他 variant. Both states
	// are reachable only through the constructors, so a named institution
	// can never carry a stale custom label. The zero value is invalid.
	Institution struct {
		name   InstitutionName
		custom string
	}

	Record struct {
		ID          string
		Date        string // YYYY-MM-DD, sortable as-is
		Institution Institution
		Amount      decimal.Decimal
		Timestamp   int64 // epoch milliseconds, refreshed on every mutation
	}

	// RecordFields carries the user-editable fields of a record through the
	// add and edit flows. CustomName is honored only when Institution is 其他.
	RecordFields struct {
		Date        string
		Institution InstitutionName
		CustomName  string
		Amount      decimal.Decimal
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonthKey    = errors.New("invalid month key")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownInstitution = errors.New("unknown institution")
	ErrMissingCustomName  = errors.New("custom institution name required")
)

func (n InstitutionName) Valid() bool {
	switch n {
	case DiLeBeiBei, ImportExportBank, Other:
		return true
	}
	return false
}

// NamedInstitution builds an institution from one of the fixed names.
// The 其他 variant needs a label and must go through CustomInstitution.
func NamedInstitution(n InstitutionName) (Institution, error) {
	if !n.Valid() {
		return Institution{}, ErrUnknownInstitution
	}
	if n == Other {
		return Institution{}, ErrMissingCustomName
	}
	return Institution{name: n}, nil
}

// CustomInstitution builds the 其他 variant carrying a free-text label.
func CustomInstitution(label string) (Institution, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Institution{}, ErrMissingCustomName
	}
	return Institution{name: Other, custom: label}, nil
}

// ResolveInstitution normalizes a name plus optional custom label into an
// Institution. The custom label is dropped unless the name is 其他, so an
// institution change can never leave a stale custom name behind.
func ResolveInstitution(n InstitutionName, custom string) (Institution, error) {
	if n == Other {
		return CustomInstitution(custom)
	}
	return NamedInstitution(n)
}

func (i Institution) Name() InstitutionName { return i.name }

func (i Institution) IsOther() bool { return i.name == Other }

// CustomName returns the custom label and whether one is set.
func (i Institution) CustomName() (string, bool) {
	return i.custom, i.custom != ""
}

// Label resolves the display and grouping label: the institution name, or
// the custom label when the institution is 其他.
func (i Institution) Label() string {
	if i.name == Other && i.custom != "" {
		return i.custom
	}
	return string(i.name)
}

func (i Institution) Validate() error {
	if !i.name.Valid() {
		return ErrUnknownInstitution
	}
	if i.name == Other && strings.TrimSpace(i.custom) == "" {
		return ErrMissingCustomName
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD calendar date. Dates carry no timezone
// semantics; beyond this check they are treated as opaque sortable strings.
func ValidateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ValidateMonthKey checks a YYYY-MM month key.
func ValidateMonthKey(s string) error {
	if _, err := time.Parse("2006-01", s); err != nil {
		return ErrInvalidMonthKey
	}
	return nil
}

// CurrentMonthKey returns the month key for the current local date.
func CurrentMonthKey() string {
	return time.Now().Format("2006-01")
}

func (f RecordFields) Validate() error {
	if err := ValidateDate(f.Date); err != nil {
		return err
	}
	if _, err := ResolveInstitution(f.Institution, f.CustomName); err != nil {
		return err
	}
	if f.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("empty record id")
	}
	if err := ValidateDate(r.Date); err != nil {
		return err
	}
	if err := r.Institution.Validate(); err != nil {
		return err
	}
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
