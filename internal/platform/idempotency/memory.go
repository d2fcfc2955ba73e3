package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store safe for concurrent use. It backs the
// development gateway; anything production-grade would persist elsewhere.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Reserve attempts to claim the key for the given request fingerprint.
func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok && now.Before(rec.ExpiresAt) {
		if rec.Fingerprint != fingerprint {
			return Reservation{}, ErrFingerprintMismatch
		}
		switch rec.Status {
		case StatusCompleted:
			return Reservation{State: ReservationStateCompleted, Record: rec}, nil
		default:
			return Reservation{State: ReservationStatePending, Record: rec}, nil
		}
	}

	rec := Record{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	s.records[key] = rec
	return Reservation{State: ReservationStateNew, Record: rec}, nil
}

// SaveResponse stores the response for later replays.
func (s *MemoryStore) SaveResponse(_ context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if ok && rec.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	if !ok {
		rec = Record{Key: key, Fingerprint: fingerprint, CreatedAt: now}
	}

	rec.Status = StatusCompleted
	rec.ResponseStatus = resp.Status
	rec.ResponseBody = append([]byte(nil), resp.Body...)
	rec.UpdatedAt = now
	rec.ExpiresAt = now.Add(ttl)
	s.records[key] = rec
	return nil
}

// Release drops a pending reservation, letting a later retry start fresh.
// Completed records are kept so replays keep working.
func (s *MemoryStore) Release(_ context.Context, key, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil
	}
	if rec.Fingerprint != fingerprint {
		return ErrFingerprintMismatch
	}
	if rec.Status == StatusPending {
		delete(s.records, key)
	}
	return nil
}

// CleanupExpired removes up to limit expired records and reports how many
// were deleted.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if limit > 0 && removed >= limit {
			break
		}
		if !now.Before(rec.ExpiresAt) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}
