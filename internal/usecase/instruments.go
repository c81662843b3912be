package usecase

import (
	"strings"

	"MarketWhisperer/internal/domain/models"
	domrepo "MarketWhisperer/internal/domain/repository"
	"MarketWhisperer/pkg/util"
)

// Instruments manages the tracked symbol set.
type Instruments struct {
	store domrepo.InstrumentStore
}

func NewInstruments(store domrepo.InstrumentStore) *Instruments {
	return &Instruments{store: store}
}

// Add tracks a symbol. Symbols are compared upper-cased.
func (u *Instruments) Add(symbol, name string) (models.Instrument, error) {
	inst := models.Instrument{
		Symbol: util.NormalizeSymbol(symbol),
		Name:   strings.TrimSpace(name),
	}
	if inst.Symbol == "" {
		return models.Instrument{}, models.ErrInvalidSymbol
	}
	if err := u.store.Add(inst); err != nil {
		return models.Instrument{}, err
	}
	return inst, nil
}

func (u *Instruments) Remove(symbol string) error {
	return u.store.Remove(util.NormalizeSymbol(symbol))
}

func (u *Instruments) List() []models.Instrument {
	return u.store.List()
}

// Snapshot returns an independent copy for job submission.
func (u *Instruments) Snapshot() []models.Instrument {
	list := u.store.List()
	out := make([]models.Instrument, len(list))
	copy(out, list)
	return out
}
