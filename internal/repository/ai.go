package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const RequestTypePlanNarrative = "plan_narrative"

type AIRepository struct {
	db *pgxpool.Pool
}

// AIRequestLog — запись журнала обращений к LLM при построении плана.
type AIRequestLog struct {
	UserID          *uuid.UUID
	PlanID          *uuid.UUID
	RequestType     string
	Provider        string
	Model           string
	Prompt          string
	RequestPayload  []byte
	ResponsePayload []byte
	RawResponse     string
	Success         bool
	ErrorMessage    *string
}

// NewAIRepository создает репозиторий для AI-запросов.
func NewAIRepository(db *pgxpool.Pool) *AIRepository {
	return &AIRepository{db: db}
}

// LogRequest сохраняет лог AI-запроса.
func (r *AIRepository) LogRequest(ctx context.Context, log AIRequestLog) error {
	requestType := log.RequestType
	if requestType == "" {
		requestType = RequestTypePlanNarrative
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_requests
		 (user_id, plan_id, request_type, provider, model, prompt, request_payload, response_payload, raw_response, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::jsonb, NULLIF($8, '')::jsonb, $9, $10, $11)`,
		log.UserID,
		log.PlanID,
		requestType,
		log.Provider,
		log.Model,
		log.Prompt,
		string(log.RequestPayload),
		string(log.ResponsePayload),
		log.RawResponse,
		log.Success,
		log.ErrorMessage,
	)
	return err
}
