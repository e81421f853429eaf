package parser

import "sync"

// MaxInternPoolSize stops the pool from growing without bound on exports
// with many unique operands.
const MaxInternPoolSize = 200000

// StringIntern returns a canonical copy of repeated strings.
// Safe for concurrent use.
type StringIntern struct {
	mu   sync.RWMutex
	pool map[string]string
}

// NewStringIntern creates an empty pool.
func NewStringIntern() *StringIntern {
	return &StringIntern{pool: make(map[string]string, 1024)}
}

// Intern returns the pooled copy of s, adding s when there is room.
func (si *StringIntern) Intern(s string) string {
	si.mu.RLock()
	pooled, ok := si.pool[s]
	full := len(si.pool) >= MaxInternPoolSize
	si.mu.RUnlock()
	if ok {
		return pooled
	}
	if full {
		return s
	}

	si.mu.Lock()
	defer si.mu.Unlock()
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) < MaxInternPoolSize {
		si.pool[s] = s
	}
	return s
}

// Len returns the number of pooled strings.
func (si *StringIntern) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.pool)
}

// Clear drops every pooled string.
func (si *StringIntern) Clear() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.pool = make(map[string]string, 1024)
}
