package coverage

// resolveEndpoints picks the endpoint(s) that supply t's required columns,
// per spec.md §4.5: an explicit t.Endpoint always wins; otherwise the
// candidate whose columns are a superset of the required set with the
// smallest extra is chosen; failing that, a greedy multi-endpoint cover is
// attempted, erroring on a residual.
func resolveEndpoints(t Template) ([]resolvedEndpoint, error) {
	if t.Endpoint != "" {
		return []resolvedEndpoint{{Name: t.Endpoint, Columns: t.Columns}}, nil
	}

	if best, ok := selectSuperset(t.Endpoints, t.Columns); ok {
		return []resolvedEndpoint{best}, nil
	}

	chosen, residual := selectGreedy(t.Endpoints, t.Columns)
	if len(residual) > 0 {
		return nil, &ErrUncoverable{Vendor: t.Vendor, Columns: residual}
	}
	return chosen, nil
}

// selectSuperset returns the single candidate whose column set is a
// superset of required with the fewest extra columns, or ok=false if none
// qualifies.
func selectSuperset(candidates []CandidateEndpoint, required []string) (resolvedEndpoint, bool) {
	var best CandidateEndpoint
	bestExtra := -1
	for _, c := range candidates {
		if !supersetOf(c.Columns, required) {
			continue
		}
		extra := len(c.Columns) - len(required)
		if bestExtra == -1 || extra < bestExtra {
			best = c
			bestExtra = extra
		}
	}
	if bestExtra == -1 {
		return resolvedEndpoint{}, false
	}
	return resolvedEndpoint{Name: best.Name, Columns: best.Columns}, true
}

// selectGreedy repeatedly picks the candidate covering the most
// still-uncovered required columns until every column is covered or no
// candidate makes further progress, returning the chosen endpoints and
// whatever columns remain uncoverable.
func selectGreedy(candidates []CandidateEndpoint, required []string) ([]resolvedEndpoint, []string) {
	uncovered := make(map[string]bool, len(required))
	for _, c := range required {
		uncovered[c] = true
	}

	used := make([]bool, len(candidates))
	var chosen []resolvedEndpoint
	for len(uncovered) > 0 {
		bestIdx := -1
		bestGain := 0
		for i, c := range candidates {
			if used[i] {
				continue
			}
			gain := 0
			for _, col := range c.Columns {
				if uncovered[col] {
					gain++
				}
			}
			if gain > bestGain {
				bestGain = gain
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		chosen = append(chosen, resolvedEndpoint{Name: candidates[bestIdx].Name, Columns: candidates[bestIdx].Columns})
		for _, col := range candidates[bestIdx].Columns {
			delete(uncovered, col)
		}
	}

	residual := make([]string, 0, len(uncovered))
	for _, c := range required {
		if uncovered[c] {
			residual = append(residual, c)
		}
	}
	return chosen, residual
}

func supersetOf(set, subset []string) bool {
	have := make(map[string]bool, len(set))
	for _, s := range set {
		have[s] = true
	}
	for _, s := range subset {
		if !have[s] {
			return false
		}
	}
	return true
}
