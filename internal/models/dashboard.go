package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatsSentinel отображается вместо счетчика, когда данные недоступны
const StatsSentinel = "00"

// DashboardStats - производные счетчики панели (/dashboard/stats).
// Не кэшируются между сессиями.
type DashboardStats struct {
	AlertsToday     string `json:"total_alerts_today" yaml:"total_alerts_today"`
	RegisteredFaces string `json:"total_registered_faces" yaml:"total_registered_faces"`
}

// SentinelStats возвращает счетчики-заглушки
func SentinelStats() DashboardStats {
	return DashboardStats{AlertsToday: StatsSentinel, RegisteredFaces: StatsSentinel}
}

// UnmarshalJSON принимает счетчики строкой ("03") или числом (3)
func (s *DashboardStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		AlertsToday     json.RawMessage `json:"total_alerts_today"`
		RegisteredFaces json.RawMessage `json:"total_registered_faces"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	alerts, err := counterDisplay(raw.AlertsToday)
	if err != nil {
		return fmt.Errorf("total_alerts_today: %w", err)
	}
	faces, err := counterDisplay(raw.RegisteredFaces)
	if err != nil {
		return fmt.Errorf("total_registered_faces: %w", err)
	}

	s.AlertsToday = alerts
	s.RegisteredFaces = faces
	return nil
}

func counterDisplay(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return StatsSentinel, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return "", fmt.Errorf("counter must be a string or integer, got %s", string(raw))
	}
	return fmt.Sprintf("%02d", n), nil
}
