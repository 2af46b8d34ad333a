package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"RiskOffRotator/internal/model"
)

// Manager is a paper executor: it accepts full-target rebalance requests and
// persists the live target instead of placing orders.
type Manager struct {
	mu       sync.Mutex
	state    *model.PortfolioState
	filePath string
}

// NewManager creates a Manager, loading state from disk if present.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load portfolio state: %w", err)
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// GetState returns a copy of the current portfolio state.
func (m *Manager) GetState() model.PortfolioState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	s.Weights = m.state.Weights.Clone()
	return s
}

// Rebalance replaces the live target with req.Weights.
func (m *Manager) Rebalance(ctx context.Context, req model.RebalanceRequest) (*model.RebalanceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkWeights(req.Weights); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.state.Allocation
	switched := prev != req.Allocation

	next := *m.state
	next.Allocation = req.Allocation
	next.Weights = req.Weights.Clone()
	next.LastRequestID = req.ID
	next.LastTrigger = req.Trigger
	next.RebalanceCount++
	next.LastRebalanceAt = req.RequestedAt
	if switched {
		next.SwitchCount++
		next.LastSwitchAt = req.RequestedAt
	}

	// The live target only changes once it is on disk.
	if err := SaveState(m.filePath, &next); err != nil {
		log.Error().Err(err).Str("request_id", req.ID).Msg("failed to save portfolio state")
		return nil, fmt.Errorf("save portfolio state: %w", err)
	}
	m.state = &next

	return &model.RebalanceResult{
		Request:            req,
		PreviousAllocation: prev,
		Switched:           switched,
	}, nil
}
