package ticket

import "sync"

// Prices holds the package prices in rupiah. Owners can adjust them at
// runtime with the set-price commands; changes are not persisted.
type Prices struct {
	mu          sync.RWMutex
	keyMonth    int64
	keyLifetime int64
	indoHangout int64
}

func NewPrices(keyMonth, keyLifetime, indoHangout int64) *Prices {
	return &Prices{
		keyMonth:    keyMonth,
		keyLifetime: keyLifetime,
		indoHangout: indoHangout,
	}
}

func (p *Prices) KeyMonth() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keyMonth
}

func (p *Prices) KeyLifetime() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keyLifetime
}

func (p *Prices) IndoHangout() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indoHangout
}

func (p *Prices) SetKeyMonth(v int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyMonth = v
}

func (p *Prices) SetKeyLifetime(v int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyLifetime = v
}

func (p *Prices) SetIndoHangout(v int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indoHangout = v
}
