package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey - имя единственного слота учетных данных
const TokenKey = "auth_token"

// TokenStore - постоянный слот для токена доступа.
// Get синхронный и доступен сразу при старте процесса.
type TokenStore interface {
	Set(token string) error
	Get() (string, bool)
	Clear() error
}

type tokenDocument struct {
	AuthToken string `json:"auth_token"`
}

// FileTokenStore хранит токен в JSON файле
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// DefaultHome возвращает каталог консоли: $FACEGUARD_HOME или ~/.faceguard
func DefaultHome() (string, error) {
	if home := os.Getenv("FACEGUARD_HOME"); home != "" {
		return home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ошибка получения домашней директории: %w", err)
	}
	return filepath.Join(home, ".faceguard"), nil
}

// NewFileTokenStore создает файловое хранилище. Пустой path означает
// файл credentials в каталоге консоли.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		home, err := DefaultHome()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, "credentials")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	return &FileTokenStore{path: path}, nil
}

// Path возвращает путь к файлу токена
func (s *FileTokenStore) Path() string {
	return s.path
}

// Set сохраняет токен. Файл заменяется целиком через rename,
// поэтому читатель видит либо старый, либо новый документ.
func (s *FileTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(tokenDocument{AuthToken: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации токена: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка установки прав на файл токена: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи токена: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи токена: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	return nil
}

// Get возвращает токен. Поврежденный файл считается пустым слотом.
func (s *FileTokenStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}

	var doc tokenDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.AuthToken == "" {
		return "", false
	}
	return doc.AuthToken, true
}

// Clear удаляет файл токена
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла токена: %w", err)
	}
	return nil
}

// MemoryTokenStore держит токен в памяти процесса
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore создает хранилище в памяти
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Set(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryTokenStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
