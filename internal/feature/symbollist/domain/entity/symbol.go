// Package entity defines the domain models for the symbollist feature.
package entity

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyCode is returned when a symbol has no code.
var ErrEmptyCode = errors.New("symbol code is required")

// Symbol represents a stock ticker symbol in the system.
// It contains information about a tradable security including its code,
// name, market, sector, and display ordering. Active symbols form the default
// universe of correlation analysis.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Market    string    `gorm:"size:100;not null"`
	Sector    string    `gorm:"size:100;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Normalize trims the text fields and upper-cases the code.
func (s *Symbol) Normalize() error {
	s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
	s.Name = strings.TrimSpace(s.Name)
	s.Market = strings.TrimSpace(s.Market)
	s.Sector = strings.TrimSpace(s.Sector)
	if s.Code == "" {
		return ErrEmptyCode
	}
	if s.Name == "" {
		s.Name = s.Code
	}
	return nil
}
