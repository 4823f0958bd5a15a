package recognition

import (
	"context"
	"math"
	"sync"

	"rideshare/internal/recognition/repository"
	"rideshare/pkg/config"
	apperrors "rideshare/pkg/errors"
	"rideshare/pkg/model"
)

// Matcher owns the in-memory encoding index and answers identity queries
// against it. The index is an explicit structure rebuilt from the
// repository after every enrollment, so matching always sees the latest
// enrollment set.
type Matcher struct {
	repo      repository.EncodingRepository
	encoder   Encoder
	threshold float64
	cfg       *config.Config

	mu    sync.RWMutex
	index []indexEntry
}

type indexEntry struct {
	username string
	vector   []float64
}

func NewMatcher(repo repository.EncodingRepository, encoder Encoder, cfg *config.Config) *Matcher {
	return &Matcher{
		repo:      repo,
		encoder:   encoder,
		threshold: cfg.MatchThreshold,
		cfg:       cfg,
	}
}

// Rebuild replaces the index with the full enrollment set. O(total
// encodings), run after every enrollment and at startup.
func (m *Matcher) Rebuild(ctx context.Context) error {
	encodings, err := m.repo.FindAll(ctx)
	if err != nil {
		return apperrors.Internal("Failed to load face encodings", err)
	}

	index := make([]indexEntry, 0, len(encodings))
	for _, enc := range encodings {
		index = append(index, indexEntry{
			username: enc.Username,
			vector:   enc.Vector,
		})
	}

	m.mu.Lock()
	m.index = index
	m.mu.Unlock()

	m.cfg.Log.Info("Face encoding index rebuilt", "encodings", len(index))
	return nil
}

// Enroll encodes the image, appends it to the user's encoding set and
// rebuilds the index.
func (m *Matcher) Enroll(ctx context.Context, username string, img []byte) error {
	if username == "" {
		return apperrors.InvalidInput("Username is required")
	}

	vector, err := m.encoder.Encode(img)
	if err != nil {
		return apperrors.InvalidInput("Image could not be processed")
	}

	if err := m.repo.Insert(ctx, &model.FaceEncoding{
		Username: username,
		Vector:   vector,
	}); err != nil {
		return apperrors.Internal("Failed to store face encoding", err)
	}

	if err := m.Rebuild(ctx); err != nil {
		return err
	}

	m.cfg.Log.Info("Face enrolled", "username", username)
	return nil
}

// Match encodes the probe and compares it against every enrolled vector.
// Vectors within the distance threshold vote for their identity; the
// identity with the most votes wins. A tie is broken arbitrarily (first
// identity reaching the winning count in index order). Returns "" when no
// vector passes the threshold.
func (m *Matcher) Match(ctx context.Context, img []byte) (string, error) {
	probe, err := m.encoder.Encode(img)
	if err != nil {
		return "", apperrors.InvalidInput("Image could not be processed")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	votes := make(map[string]int)
	best, bestVotes := "", 0
	for _, entry := range m.index {
		if len(entry.vector) != len(probe) {
			continue
		}
		if euclideanDistance(entry.vector, probe) <= m.threshold {
			votes[entry.username]++
			if votes[entry.username] > bestVotes {
				best = entry.username
				bestVotes = votes[entry.username]
			}
		}
	}

	if best == "" {
		m.cfg.Log.Info("No face match found")
		return "", nil
	}

	m.cfg.Log.Info("Face matched", "username", best, "votes", bestVotes)
	return best, nil
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
