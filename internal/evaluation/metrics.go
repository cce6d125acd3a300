package evaluation

func relevantSet(relevant []string) map[string]struct{} {
	set := make(map[string]struct{}, len(relevant))
	for _, r := range relevant {
		set[r] = struct{}{}
	}
	return set
}

func topK(retrieved []string, k int) []string {
	if k >= 0 && k < len(retrieved) {
		return retrieved[:k]
	}
	return retrieved
}

// RecallAtK is the fraction of distinct relevant items present in the first k retrieved.
// Returns 0 when relevant is empty.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	set := relevantSet(relevant)
	if len(set) == 0 {
		return 0
	}

	found := make(map[string]struct{})
	for _, r := range topK(retrieved, k) {
		if _, ok := set[r]; ok {
			found[r] = struct{}{}
		}
	}
	return float64(len(found)) / float64(len(set))
}

// MRRAtK is the reciprocal rank of the first relevant item within the first k, or 0.
func MRRAtK(relevant, retrieved []string, k int) float64 {
	set := relevantSet(relevant)
	for i, r := range topK(retrieved, k) {
		if _, ok := set[r]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}
