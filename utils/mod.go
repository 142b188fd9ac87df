package utils

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}

// IsPermutation reports whether slice holds every integer in [0, n) exactly once.
func IsPermutation(slice []int, n int) bool {
	if len(slice) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range slice {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
