package dispatch

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/ShridharB-cloud/soundwave-dreams/internal/catalog"
)

// Resolver maps a spoken song query to a catalog entry. The boolean reports
// whether any song matched; an error means the library was unreachable.
type Resolver interface {
	Resolve(ctx context.Context, query string) (catalog.Song, bool, error)
}

// SubstringResolver matches by case-insensitive substring on title or artist,
// returning the first hit in catalog order. This mirrors how the Cloudly UI
// search behaves, so "play bohemian" finds "Bohemian Rhapsody".
type SubstringResolver struct {
	store catalog.Store
}

var _ Resolver = (*SubstringResolver)(nil)

// NewSubstringResolver creates a SubstringResolver over store.
func NewSubstringResolver(store catalog.Store) *SubstringResolver {
	return &SubstringResolver{store: store}
}

func (r *SubstringResolver) Resolve(ctx context.Context, query string) (catalog.Song, bool, error) {
	songs, err := r.store.Songs(ctx)
	if err != nil {
		return catalog.Song{}, false, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return catalog.Song{}, false, nil
	}
	for _, s := range songs {
		if strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(strings.ToLower(s.Artist), q) {
			return s, true, nil
		}
	}
	return catalog.Song{}, false, nil
}

// defaultMinScore is the Jaro-Winkler similarity below which a ranked match
// is rejected as noise.
const defaultMinScore = 0.82

// RankedResolver scores every song with Jaro-Winkler similarity against title
// and artist and returns the best match above a threshold. It tolerates
// transcription slips ("bohemiam rapsody") that defeat substring matching.
type RankedResolver struct {
	store    catalog.Store
	minScore float64
}

var _ Resolver = (*RankedResolver)(nil)

// NewRankedResolver creates a RankedResolver over store. minScore <= 0 uses
// the default threshold.
func NewRankedResolver(store catalog.Store, minScore float64) *RankedResolver {
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	return &RankedResolver{store: store, minScore: minScore}
}

func (r *RankedResolver) Resolve(ctx context.Context, query string) (catalog.Song, bool, error) {
	songs, err := r.store.Songs(ctx)
	if err != nil {
		return catalog.Song{}, false, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return catalog.Song{}, false, nil
	}

	var (
		best      catalog.Song
		bestScore float64
		found     bool
	)
	for _, s := range songs {
		score := matchr.JaroWinkler(q, strings.ToLower(s.Title), true)
		if as := matchr.JaroWinkler(q, strings.ToLower(s.Artist), true); as > score {
			score = as
		}
		if score > bestScore {
			best, bestScore, found = s, score, true
		}
	}
	if !found || bestScore < r.minScore {
		return catalog.Song{}, false, nil
	}
	return best, true, nil
}
