// Package leads stores admissions enquiries: contact-form submissions,
// newsletter signups, and consultation requests. The dashboard's
// conversion figures count leads against pageview sessions.
package leads

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"brightholme/internal/timeframe"
)

// Lead types
const (
	TypeContact      = "contact"
	TypeSubscription = "subscription"
	TypeConsultation = "consultation"
)

// Lead statuses; every new lead starts as StatusNew.
const (
	StatusNew       = "New"
	StatusContacted = "Contacted"
	StatusClosed    = "Closed"
)

// Lead is one enquiry captured from the public site.
type Lead struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	LeadType  string `gorm:"index;not null"`
	FullName  string
	Email     string `gorm:"index"`
	Phone     string
	Message   string `gorm:"type:text"`
	Source    string
	Status    string    `gorm:"index;not null;default:New"`
	CreatedAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// CreateLeadInput carries the form fields for a new lead. LeadType is
// required; the rest depends on which form was submitted.
type CreateLeadInput struct {
	LeadType string
	FullName string
	Email    string
	Phone    string
	Message  string
	Source   string
}

// CreateLead validates and stores a new lead.
func CreateLead(dbManager cartridge.DBManager, logger *slog.Logger, input CreateLeadInput) (*Lead, error) {
	switch input.LeadType {
	case TypeContact:
		if input.FullName == "" || input.Email == "" {
			return nil, fmt.Errorf("contact leads require a name and email")
		}
	case TypeSubscription:
		if input.Email == "" {
			return nil, fmt.Errorf("subscription leads require an email")
		}
	case TypeConsultation:
		if input.Email == "" {
			return nil, fmt.Errorf("consultation leads require an email")
		}
	default:
		return nil, fmt.Errorf("unknown lead type: %s", input.LeadType)
	}

	now := time.Now().UTC()
	lead := &Lead{
		LeadType:  input.LeadType,
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Message:   input.Message,
		Source:    input.Source,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(lead).Error
	})
	if err != nil {
		logger.Error("Failed to store lead", slog.Any("error", err))
		return nil, fmt.Errorf("failed to store lead: %w", err)
	}

	return lead, nil
}

// UpdateLeadStatus moves a lead through the pipeline.
func UpdateLeadStatus(dbManager cartridge.DBManager, logger *slog.Logger, leadID uint, status string) error {
	if status != StatusNew && status != StatusContacted && status != StatusClosed {
		return fmt.Errorf("unknown lead status: %s", status)
	}

	db := dbManager.GetConnection()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		result := tx.Model(&Lead{}).Where("id = ?", leadID).Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update lead status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("lead %d not found", leadID)
		}
		return nil
	})
}

// CountLeadsInTimeFrame returns how many leads arrived in the window.
func CountLeadsInTimeFrame(db *gorm.DB, tf timeframe.TimeFrame) (int64, error) {
	var count int64
	err := db.Model(&Lead{}).
		Where("created_at >= ? AND created_at < ?", tf.From, tf.To).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// ListRecentLeads returns the newest leads first, capped at limit.
func ListRecentLeads(db *gorm.DB, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 20
	}

	var result []Lead
	err := db.Order("created_at DESC").Limit(limit).Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return result, nil
}
