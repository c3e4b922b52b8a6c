package company

import (
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// CreateCompanyCommand содержит данные для создания новой компании
type CreateCompanyCommand struct {
	Name string
	Code string
}

// CommandName возвращает имя команды
func (c CreateCompanyCommand) CommandName() string { return "CreateCompany" }

// RenameCompanyCommand содержит данные для переименования компании
type RenameCompanyCommand struct {
	CompanyID uuid.UUID
	Name      string
}

// CommandName возвращает имя команды
func (c RenameCompanyCommand) CommandName() string { return "RenameCompany" }

// DeactivateCompanyCommand содержит данные для деактивации компании
type DeactivateCompanyCommand struct {
	CompanyID uuid.UUID
}

// CommandName возвращает имя команды
func (c DeactivateCompanyCommand) CommandName() string { return "DeactivateCompany" }
