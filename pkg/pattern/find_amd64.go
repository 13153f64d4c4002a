// +build amd64

package pattern

import "golang.org/x/sys/cpu"

func archTier() Tier {
	switch {
	case cpu.X86.HasAVX2:
		return TierAVX2
	case cpu.X86.HasSSE41:
		return TierSSE41
	default:
		return TierScalar
	}
}
