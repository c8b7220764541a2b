package sponsorship

import (
	"strings"

	"github.com/google/uuid"
	"github.com/projecta/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SponsorshipLevel is a tier of sponsorship with a nominal value
type SponsorshipLevel struct {
	shared.TenantEntity
	ProjectID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_level_project_slug,priority:1"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Slug      string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_level_project_slug,priority:2"`
	Value     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
	Logo      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SponsorshipLevel) TableName() string {
	return "sponsorship_levels"
}

// NewSponsorshipLevel creates a level
func NewSponsorshipLevel(tenantID, projectID uuid.UUID, name, slug string, value decimal.Decimal, currency string) (*SponsorshipLevel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Level name cannot be empty")
	}
	if slug == "" {
		return nil, shared.ErrEmptySlug
	}
	if !value.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Level value must be positive")
	}
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	return &SponsorshipLevel{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ProjectID:    projectID,
		Name:         name,
		Slug:         slug,
		Value:        value,
		Currency:     cur,
	}, nil
}

func normalizeCurrency(currency string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if len(cur) != 3 {
		return "", shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	return cur, nil
}
