package memory

import (
	"sync"
	"time"

	"github.com/credential-relay/internal/domain"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCredentialTTL is how long an issued credential stays valid.
const DefaultCredentialTTL = time.Hour

// janitorInterval is how often go-cache drops items past their wall-clock expiry.
const janitorInterval = 10 * time.Minute

// StoreConfig configures a CredentialStore. Zero values fall back to defaults.
type StoreConfig struct {
	TTL      time.Duration
	HashCost int
	Now      func() time.Time
}

// CredentialStore holds issued credentials in a go-cache TTL cache. Expiry is
// decided against the injected clock (now >= ExpiresAt); the cache janitor only
// reclaims memory. Multi-key steps run under one mutex and bcrypt work happens
// outside it. Nothing survives a restart.
type CredentialStore struct {
	mu      sync.Mutex
	records *cache.Cache // subjectID -> domain.CredentialRecord
	pending *cache.Cache // subjectID -> struct{}
	ttl     time.Duration
	cost    int
	now     func() time.Time
}

func NewCredentialStore(cfg StoreConfig) *CredentialStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCredentialTTL
	}
	if cfg.HashCost < bcrypt.MinCost || cfg.HashCost > bcrypt.MaxCost {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CredentialStore{
		records: cache.New(cfg.TTL, janitorInterval),
		pending: cache.New(cache.NoExpiration, 0),
		ttl:     cfg.TTL,
		cost:    cfg.HashCost,
		now:     cfg.Now,
	}
}

// Store inserts or replaces the record for subjectID with issuedAt = now and
// clears any reservation held for it. Expired records are swept as a side effect.
func (s *CredentialStore) Store(subjectID, secret string, subjectType domain.SubjectType) error {
	const op = "store.put"
	if subjectID == "" || secret == "" {
		return domain.E(domain.KindValidationInput, op, "subject id and secret are required", nil)
	}
	if !subjectType.Valid() {
		return domain.E(domain.KindValidationInput, op, "unknown subject type "+string(subjectType), nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return domain.E(domain.KindInternal, op, "hash secret", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	s.records.Set(subjectID, domain.CredentialRecord{
		SubjectID:   subjectID,
		SecretHash:  hash,
		SubjectType: subjectType,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
	}, s.ttl)
	s.pending.Delete(subjectID)
	return nil
}

// Reserve claims subjectID while a credential for it is being delivered. It
// fails when the id has a live record or another pending reservation.
// Reservations are invisible to Validate and RemainingTTL.
func (s *CredentialStore) Reserve(subjectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	if _, ok := s.liveLocked(subjectID, now); ok {
		return false
	}
	return s.pending.Add(subjectID, struct{}{}, cache.NoExpiration) == nil
}

// Release drops a reservation taken by Reserve without storing anything.
func (s *CredentialStore) Release(subjectID string) {
	s.pending.Delete(subjectID)
}

// Validate checks a presented credential. It returns nil on success or an
// error of kind NotFound, TypeMismatch or BadSecret, checked in that order.
func (s *CredentialStore) Validate(subjectID, secret string, subjectType domain.SubjectType) error {
	const op = "store.validate"

	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)
	rec, ok := s.liveLocked(subjectID, now)
	s.mu.Unlock()

	if !ok {
		return domain.E(domain.KindNotFound, op, "no live credential", nil)
	}
	if !subjectType.Valid() || rec.SubjectType != subjectType {
		return domain.E(domain.KindTypeMismatch, op, "subject type differs", nil)
	}
	// records are immutable once stored, so the hash is safe to read unlocked
	if err := bcrypt.CompareHashAndPassword(rec.SecretHash, []byte(secret)); err != nil {
		return domain.E(domain.KindBadSecret, op, "secret does not match", nil)
	}
	return nil
}

// RemainingTTL returns max(0, expiresAt-now) for subjectID, or zero if absent.
func (s *CredentialStore) RemainingTTL(subjectID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rec, ok := s.liveLocked(subjectID, now)
	if !ok {
		return 0
	}
	return rec.ExpiresAt.Sub(now)
}

// Len returns the number of live records.
func (s *CredentialStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return s.records.ItemCount()
}

// liveLocked returns the record for subjectID if it is live at now, deleting it
// when it has expired.
func (s *CredentialStore) liveLocked(subjectID string, now time.Time) (domain.CredentialRecord, bool) {
	v, ok := s.records.Get(subjectID)
	if !ok {
		return domain.CredentialRecord{}, false
	}
	rec := v.(domain.CredentialRecord)
	if !rec.LiveAt(now) {
		s.records.Delete(subjectID)
		return domain.CredentialRecord{}, false
	}
	return rec, true
}

func (s *CredentialStore) sweepLocked(now time.Time) {
	s.records.DeleteExpired()
	for id, item := range s.records.Items() {
		if rec := item.Object.(domain.CredentialRecord); !rec.LiveAt(now) {
			s.records.Delete(id)
		}
	}
}
