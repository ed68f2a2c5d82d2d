package aggregate

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"
)

// noiser draws Laplace noise for differential privacy. Draws are deterministic
// per (cohort, epoch): querying the same cohort twice inside one epoch returns
// identical values, so repeated queries cannot average the noise away.
type noiser struct {
	// scale is the Laplace scale parameter b. Zero disables noise.
	scale float64
	// epoch is the window length noise stays fixed for.
	epoch time.Duration
}

func newNoiser(scale float64, epoch time.Duration) noiser {
	if epoch <= 0 {
		epoch = time.Hour
	}
	return noiser{scale: scale, epoch: epoch}
}

func (n noiser) enabled() bool { return n.scale > 0 }

// epochStart truncates now to the containing noise window.
func (n noiser) epochStart(now time.Time) time.Time {
	return now.UTC().Truncate(n.epoch)
}

// perturb adds one Laplace draw per value. The rng is seeded from the cohort
// identity and epoch, so draw i is stable for the whole window.
func (n noiser) perturb(cohort cohortID, epochStart time.Time, values ...*float64) {
	rng := n.rng(cohort, epochStart)
	for _, v := range values {
		*v += laplace(rng, n.scale)
	}
}

func (n noiser) rng(cohort cohortID, epochStart time.Time) *rand.Rand {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(cohort.ObjectiveID))
	h.Write([]byte{0})
	h.Write([]byte(cohort.CohortKey))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(epochStart.Unix(), 10)))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}

// laplace samples Laplace(0, scale) by inverse transform.
func laplace(rng *rand.Rand, scale float64) float64 {
	u := rng.Float64() - 0.5
	if u < 0 {
		return scale * math.Log(1+2*u)
	}
	return -scale * math.Log(1-2*u)
}
