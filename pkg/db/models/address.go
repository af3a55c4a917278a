package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a delivery destination owned by a customer.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Street     string    `gorm:"column:street;not null"`
	Number     string    `gorm:"column:number;not null"`
	Complement *string   `gorm:"column:complement"`
	District   string    `gorm:"column:district;not null"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	ZipCode    string    `gorm:"column:zip_code;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Address) TableName() string { return "addresses" }

// Line renders the address as a single delivery line.
func (a Address) Line() string {
	parts := []string{fmt.Sprintf("%s, %s", a.Street, a.Number)}
	if a.Complement != nil && strings.TrimSpace(*a.Complement) != "" {
		parts = append(parts, *a.Complement)
	}
	parts = append(parts, a.District, fmt.Sprintf("%s/%s", a.City, a.State), a.ZipCode)
	return strings.Join(parts, " - ")
}
