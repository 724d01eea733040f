package language

import "strings"

// Store exposes language lookup for handlers and the orchestrator.
type Store interface {
	List() []Language
	FindByID(id string) (Language, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Language
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied languages.
func NewMemoryStore(items []Language) *MemoryStore {
	return &MemoryStore{items: append([]Language(nil), items...)}
}

// List returns the configured languages.
func (s *MemoryStore) List() []Language {
	return append([]Language(nil), s.items...)
}

// FindByID looks up a language by id, name or speech code, ignoring case.
func (s *MemoryStore) FindByID(id string) (Language, bool) {
	id = strings.TrimSpace(id)
	for _, item := range s.items {
		if strings.EqualFold(item.ID, id) || strings.EqualFold(item.SpeechCode, id) || strings.EqualFold(item.Name, id) {
			return item, true
		}
	}
	return Language{}, false
}

// Resolve returns the canonical language id for id, falling back to Default.
func Resolve(store Store, id string) string {
	if store != nil {
		if lang, ok := store.FindByID(id); ok {
			return lang.ID
		}
	}
	return Default
}
