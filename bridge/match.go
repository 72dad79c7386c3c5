/*
match.go - Resource directory lookup by display name

PURPOSE:
  Rework identifies people by display name only; vPlan identifies them
  by resource id. MatchResource bridges the two with a tiered fuzzy
  match over the resource list as returned by the API.

MATCHING POLICY (case-insensitive, tier by tier over the whole list):
  1. Exact equality
  2. Substring containment, either direction
  3. Token set: every whitespace token of the search name is contained
     in, or contains, some token of the candidate's name

  Within a tier the first candidate in API order wins. Not-found is a
  normal outcome, not an error: the caller logs "unmatched" and stops.
*/
package bridge

import "strings"

// MatchResource resolves a display name against the resource list.
// The boolean is false when nothing matched.
func MatchResource(name string, resources []Resource) (Resource, bool) {
	search := strings.ToLower(strings.TrimSpace(name))
	if search == "" {
		return Resource{}, false
	}

	for _, r := range resources {
		if strings.ToLower(r.Name) == search {
			return r, true
		}
	}

	for _, r := range resources {
		candidate := strings.ToLower(r.Name)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, search) || strings.Contains(search, candidate) {
			return r, true
		}
	}

	searchTokens := strings.Fields(search)
	for _, r := range resources {
		if tokensMatch(searchTokens, strings.Fields(strings.ToLower(r.Name))) {
			return r, true
		}
	}

	return Resource{}, false
}

// tokensMatch reports whether every search token overlaps some
// candidate token by containment in either direction.
func tokensMatch(search, candidate []string) bool {
	if len(search) == 0 || len(candidate) == 0 {
		return false
	}
	for _, s := range search {
		found := false
		for _, c := range candidate {
			if strings.Contains(c, s) || strings.Contains(s, c) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
