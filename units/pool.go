package units

// PoolCounts is how many of each functional-unit type to build, mirroring
// config.UnitCounts; units does not import config (stepper translates one
// into the other).
type PoolCounts struct {
	ALU  int
	Mem  int
	Mul  int
	Div  int
	Saxs int
}

// PoolLatencies is the per-type latency to build each unit with,
// mirroring config.Latencies.
type PoolLatencies struct {
	ALU  int
	Mem  int
	Mul  int
	Div  int
	Saxs int
}

// BuildPool constructs a scoreboard-ready unit pool: counts[i] units of
// each type, each built with the matching latency. Order is ALU, then
// Mem, Mul, Div, Saxs — the scoreboard's Qj/Qk producer indices are
// positions into this slice, so callers must not reorder units after
// issuing instructions against them.
func BuildPool(counts PoolCounts, latencies PoolLatencies) []FunctionalUnit {
	var pool []FunctionalUnit
	for i := 0; i < counts.ALU; i++ {
		pool = append(pool, NewALUWithLatency(latencies.ALU))
	}
	for i := 0; i < counts.Mem; i++ {
		pool = append(pool, NewMemoryWithLatency(latencies.Mem))
	}
	for i := 0; i < counts.Mul; i++ {
		pool = append(pool, NewMultiplierWithLatency(latencies.Mul))
	}
	for i := 0; i < counts.Div; i++ {
		pool = append(pool, NewDividerWithLatency(latencies.Div))
	}
	for i := 0; i < counts.Saxs; i++ {
		pool = append(pool, NewSaxsWithLatency(latencies.Saxs))
	}
	return pool
}
