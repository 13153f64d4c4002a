// Package pattern implements the byte-search primitives the rest of the
// detection engine is built on: substring search, case-insensitive
// substring search, and single-byte counting/scanning. The CPU tier
// golang.org/x/sys/cpu reports is read once at package init and exposed
// as ActiveTier for diagnostics; every primitive uses the same scalar
// implementation whatever the tier, and no vector scanner exists.
package pattern

import _ "golang.org/x/sys/cpu" // pulled in by the per-arch find_*.go files

// Tier names the implementation selected for this process.
type Tier int

const (
	TierScalar Tier = iota
	TierSSE41
	TierAVX2
	TierNEON
)

func (t Tier) String() string {
	switch t {
	case TierAVX2:
		return "avx2"
	case TierSSE41:
		return "sse41"
	case TierNEON:
		return "neon"
	default:
		return "scalar"
	}
}

// ActiveTier reports which implementation tier this process selected.
// It is fixed at init and never changes for the life of the process.
var ActiveTier = detectTier()

func detectTier() Tier {
	if t := archTier(); t != TierScalar {
		return t
	}
	return TierScalar
}

// archTier inspects golang.org/x/sys/cpu feature flags for the current
// architecture. Implemented per-arch in find_*.go; architectures with no
// dedicated tier get the find_generic.go stub, which always reports
// TierScalar.

// Find returns the index of the first occurrence of needle in haystack,
// or -1 if not found. An empty needle matches at index 0.
func Find(haystack, needle []byte) int {
	if len(needle) == 0 {
		return 0
	}
	if len(needle) > len(haystack) {
		return -1
	}
	return findScalar(haystack, needle)
}

// findScalar is a plain byte-by-byte scan, used on every architecture
// and every tier. find_amd64.go/find_arm64.go only decide which tier
// ActiveTier reports; they select no chunked scanner.
func findScalar(haystack, needle []byte) int {
	n := len(needle)
	h := len(haystack)
	first := needle[0]
	for i := 0; i <= h-n; i++ {
		if haystack[i] != first {
			continue
		}
		match := true
		for j := 1; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// FindCaseInsensitive is like Find but treats ASCII letters case
// insensitively. Non-ASCII bytes must match exactly.
func FindCaseInsensitive(haystack, needle []byte) int {
	if len(needle) == 0 {
		return 0
	}
	n := len(needle)
	h := len(haystack)
	if n > h {
		return -1
	}
	for i := 0; i <= h-n; i++ {
		if matchesCaseInsensitive(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}

func matchesCaseInsensitive(a, b []byte) bool {
	for i := range b {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Contains reports whether haystack contains needle anywhere.
func Contains(haystack, needle []byte) bool {
	return Find(haystack, needle) >= 0
}

// FindByte returns the index of the first occurrence of b in haystack,
// starting at from, or -1 if not found.
func FindByte(haystack []byte, b byte, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(haystack); i++ {
		if haystack[i] == b {
			return i
		}
	}
	return -1
}

// CountByte returns the number of occurrences of b in haystack.
func CountByte(haystack []byte, b byte) int {
	count := 0
	for _, h := range haystack {
		if h == b {
			count++
		}
	}
	return count
}

// BoundedFind is a last-byte-anchored scan used by probes that must bound
// their worst-case work against adversarial input. It behaves like Find
// but never inspects more than 2*len(haystack) byte comparisons in total,
// matching the iteration bound heuristic probes are required to honor.
// When that budget runs out before the scan finishes, it returns -1.
func BoundedFind(haystack, needle []byte) int {
	n := len(needle)
	h := len(haystack)
	if n == 0 {
		return 0
	}
	if n > h {
		return -1
	}
	if n <= 4 {
		return Find(haystack, needle)
	}
	maxIter := h * 2
	last := needle[n-1]
	iter := 0
	for i := n - 1; i < h && iter < maxIter; i++ {
		iter++
		if haystack[i] != last {
			continue
		}
		start := i - n + 1
		match := true
		for j := 0; j < n-1; j++ {
			if iter >= maxIter {
				match = false
				break
			}
			iter++
			if haystack[start+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return start
		}
	}
	return -1
}
