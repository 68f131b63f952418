package derive

import (
	"fmt"
	"math"
	"strconv"
)

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Percent returns part/total*100 rounded half away from zero; 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func itoa(n int) string { return strconv.Itoa(n) }
