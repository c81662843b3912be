package repository

import (
	"sync"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/internal/domain/repository"
)

// MemoryInstrumentStore keeps the tracked set in process memory, in insertion order.
type MemoryInstrumentStore struct {
	mu    sync.RWMutex
	items []models.Instrument
}

func NewMemoryInstrumentStore() repository.InstrumentStore {
	return &MemoryInstrumentStore{}
}

func (s *MemoryInstrumentStore) Add(inst models.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.Symbol == inst.Symbol {
			return models.ErrDuplicateInstrument
		}
	}
	s.items = append(s.items, inst)
	return nil
}

func (s *MemoryInstrumentStore) Remove(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, it := range s.items {
		if it.Symbol == symbol {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return models.ErrUnknownInstrument
}

func (s *MemoryInstrumentStore) List() []models.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Instrument, len(s.items))
	copy(out, s.items)
	return out
}
