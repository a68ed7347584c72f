package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// FormatType представляет тип форматирования вывода
type FormatType string

const (
	FormatTable FormatType = "table"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// ParseFormat разбирает формат вывода
func ParseFormat(s string) (FormatType, error) {
	switch FormatType(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("неверный формат вывода: %s", s)
	}
}

// marshal кодирует v в json или yaml
func marshal(format FormatType, v interface{}) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("ошибка кодирования JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("ошибка кодирования YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("формат %s не поддерживает структурированный вывод", format)
	}
}

// DetectColors определяет, нужно ли использовать цвета
func DetectColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if colors := os.Getenv("FACEGUARD_COLORS"); colors != "" {
		return strings.ToLower(colors) == "true"
	}

	return isTerminal(os.Stdout)
}

// isTerminal проверяет, что вывод идет в терминал
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}

	return (fi.Mode() & os.ModeCharDevice) != 0
}
