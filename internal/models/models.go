package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NarrativeSource string

const (
	NarrativeSourceDeterministic NarrativeSource = "deterministic"
	NarrativeSourceAI            NarrativeSource = "ai"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SavedPlan — сохраненный результат планирования вместе с исходным запросом.
type SavedPlan struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Title            string          `json:"title"`
	Strategy         string          `json:"strategy"`
	MonthlySurplus   float64         `json:"monthly_surplus"`
	TotalDebt        float64         `json:"total_debt"`
	MonthsToDebtFree *int            `json:"months_to_debt_free"`
	NarrativeSource  NarrativeSource `json:"narrative_source"`
	Request          json.RawMessage `json:"request"`
	Output           json.RawMessage `json:"output"`
	ShareTokenHash   *string         `json:"-"`
	ShareExpiresAt   *time.Time      `json:"share_expires_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
