package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Имена orders.
const (
	OrderPauseGeneration  = "pause_generation"
	OrderExecuteTestCases = "execute_test_cases"
	OrderBroadcast        = "broadcast_message"
)

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — имя order.
	Type string `json:"type"`

	// Payload — полезная нагрузка (JSON).
	Payload json.RawMessage `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// Handler — обработчик входящего сообщения.
type Handler func(ctx context.Context, msg *Message) error

// NewMessage сериализует payload и оборачивает его в конверт.
func NewMessage(order string, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	return &Message{
		ID:        uuid.New().String(),
		Type:      order,
		Payload:   raw,
		Timestamp: time.Now(),
	}, nil
}

// Encode сериализует конверт.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode разбирает конверт из тела сообщения.
func Decode(body []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("unmarshal message: %w", ErrMissingType)
	}
	return &msg, nil
}
