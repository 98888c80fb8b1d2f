package company

import (
	"fmt"
	"time"
)

// Company is the tenant aggregate. Every metered action and subscription is
// scoped to exactly one company.
type Company struct {
	id           uint
	sid          string
	name         string
	businessType string
	email        string
	phone        string
	website      string
	country      string
	timezone     string
	ownerID      uint
	apiKeyHash   string
	isActive     bool
	deletedAt    *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

func NewCompany(sid, name, businessType string, ownerID uint) (*Company, error) {
	if sid == "" {
		return nil, fmt.Errorf("company SID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("company name is required")
	}
	if len(name) > 255 {
		return nil, fmt.Errorf("company name too long (max 255 characters)")
	}
	if businessType == "" {
		return nil, fmt.Errorf("business type is required")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}

	now := time.Now()
	return &Company{
		sid:          sid,
		name:         name,
		businessType: businessType,
		country:      "Kazakhstan",
		timezone:     "Asia/Almaty",
		ownerID:      ownerID,
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func ReconstructCompany(
	id uint,
	sid, name, businessType, email, phone, website, country, timezone string,
	ownerID uint,
	apiKeyHash string,
	isActive bool,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Company, error) {
	if id == 0 {
		return nil, fmt.Errorf("company ID cannot be zero")
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("owner ID is required")
	}

	return &Company{
		id:           id,
		sid:          sid,
		name:         name,
		businessType: businessType,
		email:        email,
		phone:        phone,
		website:      website,
		country:      country,
		timezone:     timezone,
		ownerID:      ownerID,
		apiKeyHash:   apiKeyHash,
		isActive:     isActive,
		deletedAt:    deletedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (c *Company) ID() uint             { return c.id }
func (c *Company) SID() string          { return c.sid }
func (c *Company) Name() string         { return c.name }
func (c *Company) BusinessType() string { return c.businessType }
func (c *Company) Email() string        { return c.email }
func (c *Company) Phone() string        { return c.phone }
func (c *Company) Website() string      { return c.website }
func (c *Company) Country() string      { return c.country }
func (c *Company) Timezone() string     { return c.timezone }
func (c *Company) OwnerID() uint        { return c.ownerID }
func (c *Company) APIKeyHash() string   { return c.apiKeyHash }
func (c *Company) IsActive() bool       { return c.isActive }
func (c *Company) DeletedAt() *time.Time { return c.deletedAt }
func (c *Company) CreatedAt() time.Time { return c.createdAt }
func (c *Company) UpdatedAt() time.Time { return c.updatedAt }

// SetID sets the company ID (only for persistence layer use)
func (c *Company) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("company ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("company ID cannot be zero")
	}
	c.id = id
	return nil
}

// RotateAPIKey replaces the stored API key hash. The plaintext key is only
// ever shown to the caller that rotated it.
func (c *Company) RotateAPIKey(hash string) error {
	if hash == "" {
		return fmt.Errorf("API key hash is required")
	}
	c.apiKeyHash = hash
	c.updatedAt = time.Now()
	return nil
}

func (c *Company) UpdateContact(email, phone, website string) {
	c.email = email
	c.phone = phone
	c.website = website
	c.updatedAt = time.Now()
}

func (c *Company) Rename(name string) error {
	if name == "" {
		return fmt.Errorf("company name is required")
	}
	c.name = name
	c.updatedAt = time.Now()
	return nil
}

func (c *Company) Deactivate() {
	if !c.isActive {
		return
	}
	c.isActive = false
	c.updatedAt = time.Now()
}

// SoftDelete marks the company deleted without destroying historical usage records.
func (c *Company) SoftDelete() {
	now := time.Now()
	c.deletedAt = &now
	c.isActive = false
	c.updatedAt = now
}

func (c *Company) IsDeleted() bool {
	return c.deletedAt != nil
}
