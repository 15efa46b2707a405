package models

import (
	"time"

	"github.com/google/uuid"
)

// событие об обновлении курсов или о переходе на резервную таблицу
type RatesEvent struct {
	EventID   uuid.UUID          `json:"event_id"`
	Base      string             `json:"base"`
	Source    RateSource         `json:"source"`
	Rates     map[string]float64 `json:"rates"`
	Degraded  bool               `json:"degraded"` // true когда ни один провайдер не ответил
	Timestamp time.Time          `json:"timestamp"`
}
