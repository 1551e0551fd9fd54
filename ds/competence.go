package ds

// Helpers shared by the competence estimators. All of them read the
// precomputed DSEL outputs, so they are cheap per query.

// CorrectCounts returns, per pool member, how many samples of the region it
// classified correctly.
func (b *Base) CorrectCounts(region []int) []int {
	counts := make([]int, len(b.pool))
	for _, i := range region {
		for j := range b.pool {
			if b.hits[i][j] {
				counts[j]++
			}
		}
	}
	return counts
}

// RegionAccuracy returns pool member j's accuracy over the region.
func (b *Base) RegionAccuracy(region []int, j int) float64 {
	if len(region) == 0 {
		return 0
	}
	correct := 0
	for _, i := range region {
		if b.hits[i][j] {
			correct++
		}
	}
	return float64(correct) / float64(len(region))
}

// VoteLabel runs a weighted plurality vote over the selected members'
// predictions for the query. Ties break toward the smaller label so that
// repeated runs are deterministic.
func (b *Base) VoteLabel(q Query, selected []int, weights []float64) int {
	tally := make(map[int]float64, len(b.classes_))
	for idx, j := range selected {
		w := 1.0
		if weights != nil {
			w = weights[idx]
		}
		tally[q.Labels[j]] += w
	}

	best := b.classes_[0]
	bestWeight := -1.0
	for _, label := range b.classes_ {
		if w, ok := tally[label]; ok && w > bestWeight {
			best = label
			bestWeight = w
		}
	}
	return best
}

// VoteProba averages the selected members' probability rows, weighted, and
// normalizes the result. With zero total weight it returns the uniform
// distribution.
func (b *Base) VoteProba(q Query, selected []int, weights []float64) []float64 {
	proba := make([]float64, len(b.classes_))
	total := 0.0
	for idx, j := range selected {
		w := 1.0
		if weights != nil {
			w = weights[idx]
		}
		total += w
		for c := range b.classes_ {
			proba[c] += w * q.Proba.At(j, c)
		}
	}

	if total <= 0 {
		uniform := 1.0 / float64(len(b.classes_))
		for c := range proba {
			proba[c] = uniform
		}
		return proba
	}
	for c := range proba {
		proba[c] /= total
	}
	return proba
}

// AllMembers returns the index list 0..poolSize-1, the select-all fallback
// every method shares.
func (b *Base) AllMembers() []int {
	all := make([]int, len(b.pool))
	for j := range all {
		all[j] = j
	}
	return all
}
