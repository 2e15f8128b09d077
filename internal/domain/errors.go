package domain

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable - единственный тип отказа, который обрабатывает ядро:
// источник не смог отдать одну из выборок.
var ErrDataUnavailable = errors.New("dashboard data unavailable")

const (
	SourceCredentials = "credentials"
	SourceAuditLog    = "audit_log"
	SourceMirror      = "snapshot_mirror" // Снимок из Redis в режиме follower
)

// DataUnavailableError уточняет, какая из выборок упала.
type DataUnavailableError struct {
	Source string
	Cause  error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: fetch %s failed: %v", ErrDataUnavailable, e.Source, e.Cause)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Cause
}

func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// NewDataUnavailable заворачивает ошибку источника. Если в цепочке уже есть
// DataUnavailableError, возвращается она, чтобы не получить матрешку.
func NewDataUnavailable(source string, cause error) error {
	var dErr *DataUnavailableError
	if errors.As(cause, &dErr) {
		return dErr
	}
	return &DataUnavailableError{Source: source, Cause: cause}
}
