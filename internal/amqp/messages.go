package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// PeriodTouchedMessage announces that the summary of one user's period was
// recalculated because its inputs changed. It carries only the key; consumers
// read the stored summary themselves.
type PeriodTouchedMessage struct {
	UserID    string    `json:"user_id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPeriodTouchedMessage(userID string, p core.Period, source string) *PeriodTouchedMessage {
	return &PeriodTouchedMessage{
		UserID:    userID,
		Month:     p.Month,
		Year:      p.Year,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

func (m *PeriodTouchedMessage) Period() core.Period {
	return core.Period{Month: m.Month, Year: m.Year}
}

// Validate rejects messages no consumer could act on.
func (m *PeriodTouchedMessage) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("period touched message: %w", core.ErrEmptyUser)
	}
	if err := m.Period().Validate(); err != nil {
		return fmt.Errorf("period touched message: %w", err)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *PeriodTouchedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PeriodTouchedMessageFromJSON decodes and validates a message.
func PeriodTouchedMessageFromJSON(data []byte) (*PeriodTouchedMessage, error) {
	var msg PeriodTouchedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
