package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ReservedPrefix marks control parameters that never participate in key
// derivation. Toggling a control parameter (for example a bypass directive
// smuggled by an upstream layer) must not fragment the cache.
const ReservedPrefix = "_"

// Keyer generates deterministic cache keys from tool invocations.
//
// Contract:
// - Determinism: equal (tool, caller, params) must produce the same key,
//   regardless of map iteration order.
// - Isolation: distinct callers must never collide.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from tool name, caller identity and
	// canonicalized parameters.
	Key(tool, caller string, params map[string]any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: <tool>:<caller>:<digest>
// where digest is the first 16 hex characters of
// SHA-256(canonical JSON(params)) after reserved parameters are stripped.
func (k *DefaultKeyer) Key(tool, caller string, params map[string]any) (string, error) {
	if tool == "" {
		return "", fmt.Errorf("%w: empty tool name", ErrInvalidKey)
	}
	if caller == "" {
		return "", fmt.Errorf("%w: empty caller identity", ErrInvalidKey)
	}

	canonical, err := canonicalize(stripReserved(params))
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	hash := sha256.Sum256(canonical)
	digest := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	key := fmt.Sprintf("%s:%s:%s", tool, caller, digest)
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// stripReserved drops control parameters from the hashed view.
func stripReserved(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if strings.HasPrefix(k, ReservedPrefix) {
			continue
		}
		out[k] = v
	}
	return out
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// ToolPrefix returns the key prefix shared by every entry of a tool.
// Used by selector-based invalidation.
func ToolPrefix(tool string) string {
	return tool + ":"
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
