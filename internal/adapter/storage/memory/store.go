package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fleetcore/driver-completion/internal/domain"
)

// Store is an in-memory CompletionRepository with the same join and filter
// rules as the SQL store. It is a test double for pipeline tests that need
// real filtering without a database; production code uses sqlstore.
type Store struct {
	mu           sync.RWMutex
	employees    map[int64]domain.Driver
	terminals    map[int64]domain.Terminal
	clients      map[int64]domain.Client
	orders       map[int64]domain.Order
	orderDrivers []domain.OrderDriver
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		employees: make(map[int64]domain.Driver),
		terminals: make(map[int64]domain.Terminal),
		clients:   make(map[int64]domain.Client),
		orders:    make(map[int64]domain.Order),
	}
}

func (s *Store) AddTerminal(t domain.Terminal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminals[t.TerminalID] = t
}

func (s *Store) AddEmployee(d domain.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[d.EmployeeID] = d
}

func (s *Store) AddClient(c domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ClientID] = c
}

// AddOrder stores the order and assigns it to driverID.
func (s *Store) AddOrder(o domain.Order, driverID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.OrderTrackingID] = o
	s.orderDrivers = append(s.orderDrivers, domain.OrderDriver{OrderTrackingID: o.OrderTrackingID, DriverID: driverID})
}

func (s *Store) ListActiveDrivers(ctx context.Context) ([]domain.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Driver
	for _, e := range s.employees {
		t, ok := s.terminals[e.TerminalID]
		if !ok || !e.Qualifies() {
			continue
		}
		e.TerminalName = t.TerminalName
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TerminalName != out[j].TerminalName {
			return out[i].TerminalName < out[j].TerminalName
		}
		return out[i].DriverNo < out[j].DriverNo
	})
	return out, nil
}

func (s *Store) CountUncompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
	return s.count(ctx, driverID, window, domain.BucketUncompleted)
}

func (s *Store) CountCompleted(ctx context.Context, driverID int64, window domain.Window) (int64, error) {
	return s.count(ctx, driverID, window, domain.BucketCompleted)
}

func (s *Store) count(ctx context.Context, driverID int64, window domain.Window, bucket domain.Bucket) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, od := range s.orderDrivers {
		if od.DriverID != driverID {
			continue
		}
		o, ok := s.orders[od.OrderTrackingID]
		if !ok {
			continue
		}
		if _, ok := s.clients[o.ClientID]; !ok {
			continue
		}
		if window.Contains(o.DeliveryTargetTo) && o.Status.Bucket() == bucket {
			n++
		}
	}
	return n, nil
}
