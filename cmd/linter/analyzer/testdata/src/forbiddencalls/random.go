package forbiddencalls

import "math/rand"

func GlobalRandom() int {
	rand.Seed(42)        // want "rand.Seed uses the global source, inject a \\*rand.Rand"
	return rand.Intn(62) // want "rand.Intn uses the global source, inject a \\*rand.Rand"
}

func InjectedRandom(seed int64) int {
	rnd := rand.New(rand.NewSource(seed))
	return rnd.Intn(62)
}
