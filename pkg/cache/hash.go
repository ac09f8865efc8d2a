package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// hashKey derives a fixed-length key "prefix:<sha256>" from the given
// components. Each component is written with a NUL separator so that
// ("ab","c") and ("a","bc") hash differently.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x00", p)
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
