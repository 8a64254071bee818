// Package viewstate is the durable, versioned key/value store for user
// toggles and the cached archive bundle. It is an explicit port injected
// into the components that need it; nothing reaches into it ambiently.
package viewstate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// Namespace and Version form the key prefix. Bumping the version
	// invalidates every prior entry via a prefix scan-and-delete; there
	// is no per-key migration.
	Namespace = "pcg-viewer"
	Version   = "2"

	StateFile = "viewstate.json"

	archiveKey = "data-archive"
	// ArchiveTTL is measured from last access; a read refreshes the
	// clock.
	ArchiveTTL = 3 * time.Hour
)

// Keys for the session toggles the client persists.
const (
	KeyShowUnwind       = "show-unwind"
	KeyInlineActions    = "inline-actions"
	KeyPanelWidths      = "panel-widths"
	KeyMinimizedPanels  = "minimized-panels"
	KeySelectedFunction = "selected-function"
	KeySelectedPath     = "selected-path"
	KeySelectedPoint    = "selected-point"
)

// Store is the key/value port consumed by the engine components.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string)
}

type record struct {
	Value      string    `json:"value"`
	TTLSeconds int64     `json:"ttl_seconds,omitempty"`
	LastAccess time.Time `json:"last_access,omitempty"`
}

// DiskStore persists records to a single JSON file under the state
// directory.
type DiskStore struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	records map[string]record
}

// Open loads the store, creating it when absent and purging entries left
// behind by other namespace versions.
func Open(dir string) (*DiskStore, error) {
	s := &DiskStore{
		path:    filepath.Join(dir, StateFile),
		now:     time.Now,
		records: make(map[string]record),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		// A corrupt state file is recreated rather than surfaced.
		s.records = make(map[string]record)
		return s, nil
	}
	s.purgeOtherVersions()
	return s, nil
}

func prefix() string {
	return Namespace + ":v" + Version + ":"
}

func (s *DiskStore) purgeOtherVersions() {
	for key := range s.records {
		if !strings.HasPrefix(key, prefix()) {
			delete(s.records, key)
		}
	}
}

func (s *DiskStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Get returns the value for a key. Reading an entry with a TTL refreshes
// its access clock; an expired entry is removed and treated as absent.
func (s *DiskStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := prefix() + key
	rec, ok := s.records[full]
	if !ok {
		return "", false
	}
	if rec.TTLSeconds > 0 {
		age := s.now().Sub(rec.LastAccess)
		if age > time.Duration(rec.TTLSeconds)*time.Second {
			delete(s.records, full)
			_ = s.save()
			return "", false
		}
		rec.LastAccess = s.now()
		s.records[full] = rec
		_ = s.save()
	}
	return rec.Value, true
}

// Set stores a value without expiry.
func (s *DiskStore) Set(key, value string) error {
	return s.setRecord(key, record{Value: value})
}

// SetWithTTL stores a value that expires the given duration after its last
// access.
func (s *DiskStore) SetWithTTL(key, value string, ttl time.Duration) error {
	return s.setRecord(key, record{
		Value:      value,
		TTLSeconds: int64(ttl / time.Second),
		LastAccess: s.now(),
	})
}

func (s *DiskStore) setRecord(key string, rec record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[prefix()+key] = rec
	return s.save()
}

// Delete removes a key.
func (s *DiskStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, prefix()+key)
	_ = s.save()
}

// LoadArchive restores the persisted data.zip bytes, refreshing the TTL
// clock. A blob that no longer decodes is evicted and reported absent.
func (s *DiskStore) LoadArchive() ([]byte, bool) {
	encoded, ok := s.Get(archiveKey)
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.Delete(archiveKey)
		return nil, false
	}
	return data, true
}

// SaveArchive persists the data.zip bytes base64-encoded with the archive
// TTL.
func (s *DiskStore) SaveArchive(data []byte) error {
	return s.SetWithTTL(archiveKey, base64.StdEncoding.EncodeToString(data), ArchiveTTL)
}

// EvictArchive drops the persisted archive.
func (s *DiskStore) EvictArchive() {
	s.Delete(archiveKey)
}

// DefaultDir resolves the state directory, honoring PCG_STATE_DIR.
func DefaultDir() (string, error) {
	if dir := os.Getenv("PCG_STATE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(base, "pcg-viewer"), nil
}

// GetBool reads a boolean toggle with a default.
func GetBool(s Store, key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	return v == "true"
}

// SetBool stores a boolean toggle.
func SetBool(s Store, key string, value bool) {
	if value {
		_ = s.Set(key, "true")
		return
	}
	_ = s.Set(key, "false")
}

// GetInt reads an integer setting with a default. A value that no longer
// parses falls back to the default.
func GetInt(s Store, key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SetInt stores an integer setting.
func SetInt(s Store, key string, value int) {
	_ = s.Set(key, strconv.Itoa(value))
}
