package delaystats

import (
	"strings"
)

// DeriveLine extracts the line code from a raw transportation name, which encodes "agency line"
// (e.g. "S 1" -> "1"). It returns the second whitespace-delimited token, or "" if there is none.
func DeriveLine(transportationName string) string {
	tokens := strings.Fields(transportationName)
	if len(tokens) < 2 {
		return ""
	}

	return tokens[1]
}
