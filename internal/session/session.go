// Package session holds in-progress complaint sessions. A session is created
// when the complainant selects a candidate match and advances through identity
// verification to submission. Abandoned sessions expire on a TTL; nothing is
// persisted beyond the process.
package session

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/noisewatch/noisewatch-go/internal/errors"
	"github.com/noisewatch/noisewatch-go/internal/matcher"
)

// State is the workflow position of a session.
type State string

const (
	StateSelected  State = "match_selected"
	StateVerified  State = "identity_verified"
	StateSubmitted State = "complaint_submitted"
)

// Session is one complainant's in-progress complaint.
type Session struct {
	ID            string                `json:"sessionId"`
	State         State                 `json:"state"`
	SelectedMatch matcher.CandidateMatch `json:"selectedMatch"`
	Description   string                `json:"description"`
	CreatedAt     time.Time             `json:"createdAt"`

	// Set on verification. Only the masked form is retained.
	MaskedNRIC string `json:"maskedNric,omitempty"`

	// Set on submission.
	Complaint   string    `json:"complaint,omitempty"`
	ReferenceID string    `json:"referenceId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

// Store keeps sessions in memory with TTL expiry. Safe for concurrent use.
type Store struct {
	cache *gocache.Cache
}

// NewStore creates a session store. Sessions expire ttl after their last
// state change.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{cache: gocache.New(ttl, 10*time.Minute)}
}

// Create starts a session from a selected candidate match.
func (s *Store) Create(match matcher.CandidateMatch, description string) *Session {
	sess := &Session{
		ID:            uuid.NewString(),
		State:         StateSelected,
		SelectedMatch: match,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	}
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, errors.Newf("session %s not found or expired", id).
			Category(errors.CategoryNotFound).
			Component("session").
			Build()
	}
	return v.(*Session), nil
}

// Verify records a successful identity check, advancing the session. The
// transition is only legal from the selected state.
func (s *Store) Verify(id, maskedNRIC string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.State != StateSelected {
		return nil, stateError(sess, StateSelected)
	}

	sess.State = StateVerified
	sess.MaskedNRIC = maskedNRIC
	s.cache.SetDefault(sess.ID, sess)
	return sess, nil
}

// Submit finalizes a verified session, assigning the complaint reference.
// complaint is optional free text recorded alongside the selected match.
func (s *Store) Submit(id, complaint string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.State != StateVerified {
		return nil, stateError(sess, StateVerified)
	}

	sess.State = StateSubmitted
	sess.Complaint = complaint
	sess.ReferenceID = referenceID()
	sess.SubmittedAt = time.Now().UTC()
	s.cache.SetDefault(sess.ID, sess)
	return sess, nil
}

func stateError(sess *Session, want State) error {
	return errors.Newf("session is in state %q, expected %q", sess.State, want).
		Category(errors.CategoryState).
		Component("session").
		Context("session_id", sess.ID).
		Build()
}

// referenceID builds the complaint reference handed back to the complainant,
// e.g. NW-20260828-1A2B3C.
func referenceID() string {
	short := uuid.NewString()[:6]
	return "NW-" + time.Now().UTC().Format("20060102") + "-" + short
}
