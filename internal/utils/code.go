package utils

import "fmt"

// GenerateUniqueCode returns base when exists reports it free, otherwise the
// first base_1, base_2, ... that exists does not claim.
func GenerateUniqueCode(base string, exists func(string) bool) string {
	if !exists(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !exists(candidate) {
			return candidate
		}
	}
}
