package usecase

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
)

const defaultSKUPrefix = "GEN"

// skuPrefix derives the uppercase prefix from a category name: two letters
// from each of the first two words, or the first word truncated to four
// letters. Anything that yields no letters falls back to the default prefix.
func skuPrefix(categoryName string) string {
	words := strings.Fields(categoryName)
	if len(words) == 0 {
		return defaultSKUPrefix
	}

	if len(words) >= 2 {
		prefix := takeLetters(words[0], 2) + takeLetters(words[1], 2)
		if prefix == "" {
			return defaultSKUPrefix
		}
		return prefix
	}

	prefix := takeLetters(words[0], 4)
	if prefix == "" {
		return defaultSKUPrefix
	}
	return prefix
}

func takeLetters(word string, n int) string {
	var b strings.Builder
	taken := 0
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		taken++
		if taken >= n {
			break
		}
	}
	return b.String()
}

// lastFallbackMillis makes fallback timestamps strictly monotonic within the
// process, so a burst of concurrent fallbacks still yields distinct SKUs.
// Collisions across processes remain possible; the fallback trades the nice
// prefix and cross-process uniqueness for guaranteed forward progress.
var lastFallbackMillis atomic.Int64

func fallbackSKU() string {
	ms := time.Now().UnixMilli()
	for {
		last := lastFallbackMillis.Load()
		if ms <= last {
			ms = last + 1
		}
		if lastFallbackMillis.CompareAndSwap(last, ms) {
			break
		}
	}
	return fmt.Sprintf("%s-%06d", defaultSKUPrefix, ms%1_000_000)
}
