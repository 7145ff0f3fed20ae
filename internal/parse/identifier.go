package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Decoded labels arrive in a few shapes depending on who printed them:
// bare digits, zero-padded digits, or an "ITEM"/"INV" prefix separated
// by "-", ":" or whitespace.
var idRe = regexp.MustCompile(`^(?i)(?:(?:ITEM|INV)[-:\s])?\s*(\d+)$`)

// ItemID extracts the numeric item identifier from a decoded label string.
func ItemID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty item identifier")
	}

	m := idRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unable to parse item identifier: %q", raw)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("item identifier out of range: %q", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("item identifier must be positive: %q", raw)
	}
	return n, nil
}
