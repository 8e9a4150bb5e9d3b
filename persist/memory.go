package persist

import (
	"context"
	"sort"
	"sync"

	"github.com/phanxgames/canopy"
)

type memoryBoard struct {
	blocks map[canopy.BlockID]canopy.Block
	order  []canopy.BlockID
}

// Memory is an in-process Backend.
type Memory struct {
	mu     sync.RWMutex
	boards map[string]*memoryBoard
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{boards: make(map[string]*memoryBoard)}
}

func (m *Memory) board(name string) *memoryBoard {
	b, ok := m.boards[name]
	if !ok {
		b = &memoryBoard{blocks: make(map[canopy.BlockID]canopy.Block)}
		m.boards[name] = b
	}
	return b
}

func (m *Memory) Load(_ context.Context, board string) ([]canopy.Block, error) {
	if err := ValidateBoard(board); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[board]
	if !ok {
		return nil, ErrNotFound
	}
	return arrange(b.blocks, b.order), nil
}

func (m *Memory) Put(_ context.Context, board string, blk canopy.Block) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board(board).blocks[blk.ID] = blk
	return nil
}

func (m *Memory) Delete(_ context.Context, board string, ids ...canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.board(board)
	for _, id := range ids {
		delete(b.blocks, id)
	}
	return nil
}

func (m *Memory) SaveOrder(_ context.Context, board string, order []canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board(board).order = append([]canopy.BlockID(nil), order...)
	return nil
}

func (m *Memory) Boards(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.boards))
	for name := range m.boards {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }
