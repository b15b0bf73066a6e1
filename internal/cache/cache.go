// Package cache provides the result cache used to guarantee at-most-one
// computation per distinct backtest configuration. The cache is an explicit
// injected collaborator so tests can substitute an in-memory fake and assert
// on call counts.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"crypto-backtest-go/internal/models"

	"github.com/jxskiss/base62"
)

// ResultCache abstracts the storage backing the backtest result cache.
// Get returns (nil, nil) when the hash is not present.
type ResultCache interface {
	Get(hash string) (*models.BacktestResult, error)
	Put(hash string, result *models.BacktestResult) error
	Close() error
}

// Hash computes the deterministic parameter hash for a request: a sha256
// digest of the canonical request tuple, base62-encoded into a compact key.
// Parameters are serialized sorted by name with fixed formatting so that two
// semantically identical requests always produce the same key.
func Hash(req *models.BacktestRequest) string {
	names := make([]string, 0, len(req.Parameters))
	for name := range req.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%s|%d|%d|%.8f|",
		req.Strategy, req.Symbol, req.Interval,
		req.Start.UTC().Unix(), req.End.UTC().Unix(),
		req.InitialInvestment)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s=%.10g&", name, req.Parameters[name])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return base62.EncodeToString(sum[:])
}
