// Package rircache keeps emitted artifacts keyed by the input that produced
// them, in memory and optionally in a SQLite table.
package rircache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/funvibe/qirlower/internal/config"
)

// Key derives the cache key for a source under a configuration. Every
// setting that changes the emitted bytes takes part in it.
func Key(source []byte, cfg *config.LoweringConfig) string {
	h := sha256.New()
	h.Write(source)
	h.Write([]byte{0})
	for _, part := range []string{
		cfg.Entry,
		cfg.Profile,
		cfg.Format,
		strconv.Itoa(cfg.Limits.MaxLoopIterations),
		strconv.Itoa(cfg.Limits.MaxCallDepth),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// shortKey abbreviates a key for logs.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
