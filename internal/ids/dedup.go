package ids

// Dedup collapses records that share a key, keeping the last record seen for
// each key at the position where that key first appeared.
//
// key returns the record's key. A record whose key is empty is given a fresh
// identifier from gen through assign (the record is mutated in place) before
// it is folded in. When assign is nil, records with empty keys are kept
// as-is under a fresh internal key so they are never merged with each other.
//
// Inputs are expected in ascending key order (as selected by the store), so
// the output is ascending too. Dedup is idempotent: Dedup(Dedup(x)) has the
// same records as Dedup(x).
func Dedup[T any](records []T, key func(*T) string, assign func(*T, string), gen Generator) []T {
	index := make(map[string]int, len(records))
	out := make([]T, 0, len(records))

	for i := range records {
		rec := records[i]
		k := key(&rec)
		if k == "" {
			k = gen.Generate()
			if assign != nil {
				assign(&rec, k)
			}
		}

		if pos, ok := index[k]; ok {
			out[pos] = rec
			continue
		}
		index[k] = len(out)
		out = append(out, rec)
	}

	return out
}
