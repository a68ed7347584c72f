package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Бэкенд отдает datetime без часового пояса, поэтому кроме RFC 3339
// принимаем "наивные" форматы и считаем их UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp представляет метку времени из ответа бэкенда
type Timestamp struct {
	time.Time
}

// NewTimestamp создает метку времени
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp разбирает метку времени в любом из поддерживаемых форматов
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp format: %q", s)
}

// UnmarshalJSON разбирает строку с меткой времени
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON сериализует метку времени в RFC 3339
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// MarshalYAML сериализует метку времени для yaml вывода
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339), nil
}

// Decimal представляет десятичное значение, которое бэкенд может
// отдать числом или строкой ("9.99")
type Decimal float64

// Float64 возвращает значение как float64
func (d Decimal) Float64() float64 {
	return float64(d)
}

// UnmarshalJSON принимает число, строку с числом или null
func (d *Decimal) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}

	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}

	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid decimal value %s: %w", string(data), err)
	}
	*d = Decimal(v)
	return nil
}
