package heuristics

// Normalized string-similarity ratio, compatible with Python difflib's
// SequenceMatcher.ratio(): 2*M / (len(a)+len(b)), where M is the total
// length of the matching blocks found by the recursive longest-matching-
// block algorithm (Ratcliff/Obershelp "gestalt pattern matching").
//
// The 0.6 money-trail threshold was calibrated against this exact ratio
// on real beneficiary/operator pairs, so an off-the-shelf edit-distance
// metric is not a drop-in replacement.

// SimilarityRatio returns a measure of the sequences' similarity in [0, 1].
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	// Index positions of each rune in b for the longest-match search.
	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}

	matched := 0
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(ra), 0, len(rb)}}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(ra, s.alo, s.ahi, s.blo, s.bhi, b2j)
		if k == 0 {
			continue
		}
		matched += k
		queue = append(queue,
			span{s.alo, i, s.blo, j},
			span{i + k, s.ahi, j + k, s.bhi},
		)
	}

	return 2.0 * float64(matched) / float64(total)
}

// longestMatch finds the longest block ra[i:i+k] == rb[j:j+k] inside the
// given window, preferring the earliest block in a (then in b) on ties,
// mirroring difflib's tie-breaking.
func longestMatch(ra []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo

	// j2len[j] = length of the longest match ending at ra[i], rb[j].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[ra[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	return besti, bestj, bestsize
}
