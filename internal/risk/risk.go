package risk

import (
	"context"
	"math"
	"sync"

	"trendbot/internal/exchange"
	"trendbot/internal/logger"
	"trendbot/internal/models"
	"trendbot/internal/retry"
)

type Params struct {
	StopLossPercent float64
	TrailingBuffer  float64
	AdaptiveBuffer  bool
}

type Position struct {
	Symbol     string
	Qty        float64
	EntryPrice float64
	HighWater  float64
}

func (p Position) Flat() bool {
	return p.Qty <= 0
}

type Manager struct {
	client exchange.Client
	log    *logger.Logger
	policy retry.Policy
	params Params

	mu        sync.Mutex
	highWater map[string]float64
	stops     map[string]float64
}

func NewManager(client exchange.Client, log *logger.Logger, policy retry.Policy, params Params) *Manager {
	return &Manager{
		client:    client,
		log:       log,
		policy:    policy,
		params:    params,
		highWater: map[string]float64{},
		stops:     map[string]float64{},
	}
}

// Snapshot перечитывает остаток и цену входа с биржи каждый цикл,
// локально живёт только достигнутый максимум цены.
func (m *Manager) Snapshot(ctx context.Context, info models.SymbolInfo, price float64) (Position, error) {
	balance, err := retry.Do(ctx, m.log, m.policy, func() (exchange.Balance, error) {
		return m.client.GetBalance(ctx, info.BaseAsset)
	})
	if err != nil {
		return Position{}, err
	}

	pos := Position{Symbol: info.Symbol, Qty: balance.Free}
	if pos.Flat() {
		m.Reset(info.Symbol)
		return pos, nil
	}

	entry, ok, err := m.EntryPrice(ctx, info.Symbol)
	if err != nil {
		return Position{}, err
	}
	if ok {
		pos.EntryPrice = entry
	}

	m.mu.Lock()
	hw := m.highWater[info.Symbol]
	hw = math.Max(hw, math.Max(pos.EntryPrice, price))
	m.highWater[info.Symbol] = hw
	m.mu.Unlock()
	pos.HighWater = hw

	return pos, nil
}

// Символ без сделок даёт нулевой результат, не ошибку.
func (m *Manager) EntryPrice(ctx context.Context, symbol string) (float64, bool, error) {
	trades, err := retry.Do(ctx, m.log, m.policy, func() ([]models.Trade, error) {
		return m.client.GetMyTrades(ctx, symbol)
	})
	if err != nil {
		return 0, false, err
	}
	if len(trades) == 0 {
		return 0, false, nil
	}
	return trades[len(trades)-1].Price, true, nil
}

// StopPrice пересчитывается каждый цикл, но за счёт храповика по
// прошлому значению не опускается за время жизни позиции.
func (m *Manager) StopPrice(pos Position, atr float64) float64 {
	if pos.Flat() || pos.EntryPrice <= 0 {
		return 0
	}

	base := pos.EntryPrice * (1 - m.params.StopLossPercent)
	stop := base

	if m.params.AdaptiveBuffer {
		// math.Max(x, NaN) == NaN: без ATR остаётся базовый буфер.
		buffer := m.params.TrailingBuffer
		if !math.IsNaN(atr) {
			buffer = math.Max(buffer, atr/100)
		}
		stop = math.Max(base, pos.HighWater*(1-buffer))
	} else if pos.HighWater > pos.EntryPrice*(1+m.params.TrailingBuffer) {
		stop = math.Max(base, pos.HighWater*(1-m.params.TrailingBuffer))
	}

	m.mu.Lock()
	if prev, ok := m.stops[pos.Symbol]; ok && prev > stop {
		stop = prev
	}
	m.stops[pos.Symbol] = stop
	m.mu.Unlock()

	return stop
}

func (m *Manager) LastStop(symbol string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stop, ok := m.stops[symbol]
	return stop, ok
}

func (m *Manager) Reset(symbol string) {
	m.mu.Lock()
	delete(m.highWater, symbol)
	delete(m.stops, symbol)
	m.mu.Unlock()
}
