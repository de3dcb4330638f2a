package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory Store whose reads and writes can be made to fail.
type fakeStore struct {
	mu        sync.Mutex
	data      map[string]string
	readErr   error
	failWrite bool
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (s *fakeStore) Read(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", false, s.readErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Write(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failWrite {
		return errStoreDown
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *fakeStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *fakeStore) setReadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *fakeStore) setFailWrite(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = fail
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Read(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStore) Write(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordOperationResult(operation, result string) {
	m.Called(operation, result)
}

func (m *MockMetrics) RecordBalanceChange(oldBalance, newBalance int64) {
	m.Called(oldBalance, newBalance)
}

func (m *MockMetrics) RecordPersistDuration(time.Duration) {}

func (m *MockMetrics) RecordHydration(outcome string) {
	m.Called(outcome)
}

func (m *MockMetrics) RecordError(operation, errType string) {
	m.Called(operation, errType)
}
