package output

import "time"

// Envelope - структурированный вывод json/yaml с метаданными
type Envelope struct {
	Success   bool        `json:"success" yaml:"success"`
	Data      interface{} `json:"data,omitempty" yaml:"data,omitempty"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
	Metadata  *Metadata   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Metadata содержит метаданные вывода. Общее число событий журнала
// неизвестно, поэтому есть только окно и размер страницы.
type Metadata struct {
	Command string `json:"command" yaml:"command"`
	Count   int    `json:"count" yaml:"count"`
	Limit   int    `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// NewEnvelope создает вывод
func NewEnvelope(success bool, data interface{}, err error) *Envelope {
	env := &Envelope{
		Success:   success,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		env.Error = err.Error()
	}
	return env
}

// WithMetadata добавляет метаданные
func (e *Envelope) WithMetadata(command string, count, limit, offset int) *Envelope {
	e.Metadata = &Metadata{
		Command: command,
		Count:   count,
		Limit:   limit,
		Offset:  offset,
	}
	return e
}
