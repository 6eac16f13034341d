// Package similar implements the cross-tenant similarity lookup: given the
// caller's model codes, find other owners' entries sharing a code, labeled
// via the profile directory. It also provides the pairwise catalog
// comparison and the request sequence guard used to drop stale results.
package similar

import (
	"context"
	"sort"
	"strings"

	"github.com/mbx/modelbox/internal/profiles"
	"github.com/mbx/modelbox/internal/records"
)

// labelChunkSize bounds how many owner ids go into one profile lookup.
const labelChunkSize = 100

// Match is one other-owner group sharing a code. Name and Year carry all
// variants of that owner's rows for the code, joined for display.
type Match struct {
	Owner string
	Label string
	Name  string
	Year  string
	Code  string
	Image string
	Link  string
}

// Index answers similarity queries across tenants.
type Index struct {
	records  records.Repository
	profiles profiles.Repository
}

func NewIndex(records records.Repository, profiles profiles.Repository) *Index {
	return &Index{records: records, profiles: profiles}
}

// NormalizeCode lowercases and trims a model code for matching.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// FindSimilar maps each normalized input code to the other owners' entries
// sharing it, one row per (owner, code) pair. Results per code sort by
// label, then name, then code. Unknown input codes map to nothing; an empty
// input skips the query entirely.
func (ix *Index) FindSimilar(ctx context.Context, codes []string, excludeOwner string) (map[string][]Match, error) {
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		key := NormalizeCode(code)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}

	result := make(map[string][]Match)
	if len(normalized) == 0 {
		return result, nil
	}

	rows, err := ix.records.SelectByCodes(ctx, normalized, excludeOwner)
	if err != nil {
		return nil, err
	}

	// One group per (owner, code); later rows merge in as variants.
	groups := make(map[[2]string]*Match)
	order := make([][2]string, 0)
	for _, row := range rows {
		key := NormalizeCode(row.Code)
		gk := [2]string{row.Owner, key}
		g, ok := groups[gk]
		if !ok {
			g = &Match{
				Owner: row.Owner,
				Name:  strings.TrimSpace(row.Name),
				Year:  strings.TrimSpace(row.Year),
				Code:  key,
				Image: row.Image,
				Link:  row.Link,
			}
			groups[gk] = g
			order = append(order, gk)
			continue
		}
		g.Name = mergeVariant(g.Name, row.Name)
		g.Year = mergeVariant(g.Year, row.Year)
		if g.Image == "" {
			g.Image = row.Image
		}
		if g.Link == "" {
			g.Link = row.Link
		}
	}

	labels, err := ix.ownerLabels(ctx, order)
	if err != nil {
		return nil, err
	}

	for _, gk := range order {
		g := groups[gk]
		g.Label = labels[g.Owner]
		if g.Label == "" {
			g.Label = g.Owner
		}
		result[g.Code] = append(result[g.Code], *g)
	}

	for code := range result {
		matches := result[code]
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].Label != matches[j].Label {
				return matches[i].Label < matches[j].Label
			}
			if matches[i].Name != matches[j].Name {
				return matches[i].Name < matches[j].Name
			}
			return matches[i].Code < matches[j].Code
		})
	}

	return result, nil
}

// ownerLabels resolves display labels for every distinct owner in the
// groups, batching the directory lookups.
func (ix *Index) ownerLabels(ctx context.Context, groups [][2]string) (map[string]string, error) {
	distinct := make([]string, 0)
	seen := make(map[string]struct{})
	for _, gk := range groups {
		if _, dup := seen[gk[0]]; dup {
			continue
		}
		seen[gk[0]] = struct{}{}
		distinct = append(distinct, gk[0])
	}

	labels := make(map[string]string, len(distinct))
	for start := 0; start < len(distinct); start += labelChunkSize {
		end := start + labelChunkSize
		if end > len(distinct) {
			end = len(distinct)
		}
		chunk, err := ix.profiles.EmailsByIDs(ctx, distinct[start:end])
		if err != nil {
			return nil, err
		}
		for id, email := range chunk {
			labels[id] = email
		}
	}
	return labels, nil
}

func mergeVariant(existing, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return existing
	}
	if existing == "" {
		return candidate
	}
	for _, part := range strings.Split(existing, " / ") {
		if part == candidate {
			return existing
		}
	}
	return existing + " / " + candidate
}
