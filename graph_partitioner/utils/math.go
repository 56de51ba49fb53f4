package utils

func Bool2Int(flag bool) int {
	if flag {
		return 1
	}
	return 0
}

// CeilDiv requires b > 0.
func CeilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// FindMinIndex returns the first index i in [0, count) no other index is
// less than, -1 for an empty range.
func FindMinIndex(count int, less func(i, j int) bool) int {
	ans := -1
	for i := 0; i < count; i++ {
		if ans == -1 || less(i, ans) {
			ans = i
		}
	}
	return ans
}
