package export

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fielddata/visitdedupe/internal/dedupe"
)

// ErrRunNotFound is returned when a run has expired or never existed.
var ErrRunNotFound = errors.New("run not found")

// Run is one completed pipeline invocation held for download.
type Run struct {
	ID        uuid.UUID    `json:"id"`
	FileName  string       `json:"fileName"`
	Stats     dedupe.Stats `json:"stats"`
	Artifacts []Artifact   `json:"artifacts"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Store keeps completed runs in memory until their TTL lapses. Nothing
// survives a restart; callers re-run by resubmitting the same input.
type Store struct {
	mu   sync.Mutex
	runs map[uuid.UUID]Run

	ttl    time.Duration
	now    func() time.Time
	signer *downloadSigner
}

// Option customizes a Store.
type Option func(*Store)

// WithTTL sets how long completed runs stay downloadable.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTokenTTL customizes the lifetime of signed download links.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.signer = newDownloadSigner(ttl)
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty run store.
func NewStore(opts ...Option) *Store {
	store := &Store{
		runs: make(map[uuid.UUID]Run),
		ttl:  30 * time.Minute,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.signer == nil {
		store.signer = newDownloadSigner(store.ttl)
	}
	return store
}

// Put records a completed run and returns it with its assigned ID.
func (s *Store) Put(fileName string, stats dedupe.Stats, artifacts []Artifact) Run {
	run := Run{
		ID:        uuid.New(),
		FileName:  fileName,
		Stats:     stats,
		Artifacts: append([]Artifact(nil), artifacts...),
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.runs[run.ID] = run
	return run
}

// Get returns a live run by ID.
func (s *Store) Get(id uuid.UUID) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return run, nil
}

// Artifact returns one named artifact of a live run.
func (s *Store) Artifact(id uuid.UUID, name string) (Artifact, error) {
	run, err := s.Get(id)
	if err != nil {
		return Artifact{}, err
	}
	for _, artifact := range run.Artifacts {
		if artifact.Name == name {
			return artifact, nil
		}
	}
	return Artifact{}, fmt.Errorf("artifact %q not part of run %s", name, id)
}

// DownloadURL signs a short-lived download link for one artifact.
func (s *Store) DownloadURL(runID uuid.UUID, artifact string) string {
	token := s.signer.Sign(runID, artifact, s.now())
	values := url.Values{}
	values.Set("token", token)
	return fmt.Sprintf("/dedupe/files/%s/%s?%s", runID.String(), url.PathEscape(artifact), values.Encode())
}

// ValidateDownloadToken ensures the token matches the run, artifact, and
// expiry it was signed for.
func (s *Store) ValidateDownloadToken(runID uuid.UUID, artifact, token string) error {
	return s.signer.Verify(runID, artifact, token, s.now())
}

// prune drops expired runs. Caller holds the lock.
func (s *Store) prune() {
	cutoff := s.now().Add(-s.ttl)
	for id, run := range s.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
		}
	}
}

type downloadSigner struct {
	secret []byte
	ttl    time.Duration
}

func newDownloadSigner(ttl time.Duration) *downloadSigner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &downloadSigner{secret: []byte(uuid.New().String()), ttl: ttl}
}

func (s *downloadSigner) Sign(runID uuid.UUID, artifact string, now time.Time) string {
	expires := now.Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s:%s:%d", runID.String(), artifact, expires)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	raw := fmt.Sprintf("%d:%s", expires, signature)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func (s *downloadSigner) Verify(runID uuid.UUID, artifact, token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("missing download token")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return errors.New("invalid token format")
	}
	expires, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid token expiration: %w", err)
	}
	if now.Unix() > expires {
		return errors.New("download token expired")
	}
	payload := fmt.Sprintf("%s:%s:%d", runID.String(), artifact, expires)
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	expected := mac.Sum(nil)
	provided, err := hex.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("invalid token signature: %w", err)
	}
	if !hmac.Equal(expected, provided) {
		return errors.New("invalid download token")
	}
	return nil
}
