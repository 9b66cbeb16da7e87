package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Manager keeps per-vendor policies loaded from a directory. File stem
// is the vendor name; .json and .csv files are both accepted.
type Manager struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	logger   *zap.Logger
}

// NewManager loads every policy file in dir. A missing directory is
// not an error (no vendor policies configured yet); a malformed policy
// file is, so a broken policy never silently disables auditing.
func NewManager(dir string, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		policies: make(map[string]*Policy),
		logger:   logger,
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Info("Policy directory not found, no vendor policies loaded", zap.String("dir", dir))
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".json" && ext != ".csv" {
			continue
		}

		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load policy %s: %w", name, err)
		}
		vendor := strings.TrimSuffix(name, ext)
		m.policies[normalizeVendorKey(vendor)] = p
		logger.Info("Loaded vendor policy", zap.String("vendor", vendor))
	}

	return m, nil
}

// Get returns the policy for a vendor, or nil when none is configured.
func (m *Manager) Get(vendor string) *Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policies[normalizeVendorKey(vendor)]
}

// Set adds or replaces a vendor policy.
func (m *Manager) Set(vendor string, p *Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[normalizeVendorKey(vendor)] = p
}

// Vendors lists vendors with a configured policy.
func (m *Manager) Vendors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.policies))
	for v := range m.policies {
		out = append(out, v)
	}
	return out
}

func normalizeVendorKey(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}
