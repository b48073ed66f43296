// Package utils holds small string helpers shared by several packages.
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// JSONPointerToPath renders a schema instance location such as
// "/tasks/0/due" as "tasks[0].due". Numeric segments become indexes.
func JSONPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")

	var b strings.Builder
	for _, seg := range strings.Split(ptr, "/") {
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		switch _, err := strconv.Atoi(seg); {
		case seg == "":
		case err == nil:
			fmt.Fprintf(&b, "[%s]", seg)
		case b.Len() == 0:
			b.WriteString(seg)
		default:
			b.WriteString("." + seg)
		}
	}
	return b.String()
}

// Truncate shortens s to at most max runes, ending with an ellipsis when
// anything was cut. A max below 1 returns s unchanged.
func Truncate(s string, max int) string {
	if max < 1 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
