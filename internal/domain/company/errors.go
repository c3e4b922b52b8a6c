package company

import (
	"fmt"

	"github.com/lllypuk/corebus/internal/domain/errs"
)

// CodeExistError is returned when another company already uses the code.
type CodeExistError struct {
	Code string
}

func NewCodeExistError(code Code) *CodeExistError {
	return &CodeExistError{Code: code.String()}
}

func (e *CodeExistError) Error() string {
	return fmt.Sprintf("company with code %q already exists", e.Code)
}

func (e *CodeExistError) Kind() errs.Kind { return errs.KindConflict }

func (e *CodeExistError) Unwrap() error { return errs.ErrAlreadyExists }

// NameExistError is returned when another company already uses the name.
type NameExistError struct {
	Name string
}

func NewNameExistError(name Name) *NameExistError {
	return &NameExistError{Name: name.String()}
}

func (e *NameExistError) Error() string {
	return fmt.Sprintf("company with name %q already exists", e.Name)
}

func (e *NameExistError) Kind() errs.Kind { return errs.KindConflict }

func (e *NameExistError) Unwrap() error { return errs.ErrAlreadyExists }
