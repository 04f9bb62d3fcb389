package dto

import (
	"time"

	"ai-editor-be/internal/pkg/logger"
)

type ActivityStatsResponse struct {
	Source          string     `json:"source"`
	ExchangesOK     int64      `json:"exchanges_succeeded"`
	ExchangesFailed int64      `json:"exchanges_failed"`
	LastExchangeAt  *time.Time `json:"last_exchange_at,omitempty"`
	LiveSessions    int        `json:"live_sessions"`
}

type LogsQuery struct {
	Level  string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type LogsResponse struct {
	Logs []logger.LogEntry `json:"logs"`
}
