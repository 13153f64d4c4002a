// +build arm64

package pattern

import "golang.org/x/sys/cpu"

func archTier() Tier {
	if cpu.ARM64.HasASIMD {
		return TierNEON
	}
	return TierScalar
}
