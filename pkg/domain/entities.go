package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// EnsureID assigns a UUID when the struct is about to be stored.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// RegistrationKeys carry the opaque credentials a push provider needs to
// encrypt payloads for one endpoint. They are never mutated after creation.
type RegistrationKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Registration represents one external push destination. The endpoint URL is
// the unique identity; the store holds at most one entry per endpoint.
type Registration struct {
	RecordMeta
	Endpoint string           `json:"endpoint"`
	Keys     RegistrationKeys `json:"keys"`
}

// Payload is the ephemeral value fanned out to peers and push endpoints.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Delivery attempt statuses.
const (
	AttemptStatusDelivered = "delivered"
	AttemptStatusPruned    = "pruned"
	AttemptStatusFailed    = "failed"
)

// DeliveryAttempt records the outcome of one push delivery for auditing.
type DeliveryAttempt struct {
	bun.BaseModel `bun:"table:delivery_attempts"`
	RecordMeta
	Endpoint   string  `bun:",notnull" json:"endpoint"`
	Provider   string  `json:"provider"`
	Status     string  `bun:",notnull" json:"status"`
	StatusCode int     `json:"status_code"`
	Error      string  `json:"error,omitempty"`
	Payload    JSONMap `bun:"type:jsonb" json:"payload,omitempty"`
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}
