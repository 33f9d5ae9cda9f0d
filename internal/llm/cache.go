package llm

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Prompt caching pays off only above a minimum instruction size; below it the
// cache write overhead costs more than it saves.
const (
	cacheMinChars     = 500
	charsPerTokenEst  = 3.5
	cacheSavingsRatio = 0.9
)

// CacheDecision is the binary choice of whether to mark instruction text as
// provider-side cacheable for a given call.
type CacheDecision struct {
	Enable          bool   `json:"enable"`
	EstimatedTokens int    `json:"estimated_tokens"`
	Reason          string `json:"reason"`
}

// DecideCache decides whether to enable prompt caching for the instruction
// text. Length in characters is the sole gate; multi-byte text counts by
// rune, not by byte.
func DecideCache(instructions string) CacheDecision {
	n := utf8.RuneCountInString(instructions)
	tokens := int(math.Ceil(float64(n) / charsPerTokenEst))

	if n < cacheMinChars {
		return CacheDecision{
			Enable:          false,
			EstimatedTokens: tokens,
			Reason:          fmt.Sprintf("instructions below %d chars, caching overhead not worth it", cacheMinChars),
		}
	}
	return CacheDecision{
		Enable:          true,
		EstimatedTokens: tokens,
		Reason:          "instructions long enough to benefit from prompt caching",
	}
}

// CacheStats reports cache activity for a call that had caching enabled.
type CacheStats struct {
	CreationTokens  int `json:"cache_creation_tokens"`
	ReadTokens      int `json:"cache_read_tokens"`
	EstimatedSaving int `json:"estimated_tokens_saved"`
}
