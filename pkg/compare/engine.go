package compare

import (
	"sort"

	"github.com/samber/lo"

	"github.com/sdejongh/dirmerge/pkg/models"
)

// Compare computes the comparison of two content indexes.
//
// Two independent passes run over the same indexes. The digest pass decides
// uniqueness: a digest present on one side only is unique to that side,
// whatever the names of its paths. The path pass decides sameness: a path
// present on both sides is identical when the digests match and a conflict
// otherwise. Name-only paths whose digest is shared with the other side end
// up in neither unique set nor the path pass; they are grouped in Renamed.
//
// The result only depends on digest and path equality. All path lists are
// sorted.
func Compare(a, b *models.ContentIndex) *models.ComparisonResult {
	result := &models.ComparisonResult{
		UniqueToA: make(map[models.ContentDigest][]string),
		UniqueToB: make(map[models.ContentDigest][]string),
		Renamed:   make(map[models.ContentDigest]models.RenamedGroup),
		FilesA:    a.Len(),
		FilesB:    b.Len(),
	}

	// Digest pass
	digestsA, digestsB := a.Digests(), b.Digests()
	onlyA, onlyB := lo.Difference(digestsA, digestsB)
	for _, d := range onlyA {
		result.UniqueToA[d] = a.PathsFor(d)
	}
	for _, d := range onlyB {
		result.UniqueToB[d] = b.PathsFor(d)
	}

	// Path pass
	pathsA, pathsB := a.Paths(), b.Paths()
	for _, path := range lo.Intersect(pathsA, pathsB) {
		da, _ := a.Digest(path)
		db, _ := b.Digest(path)
		if da == db {
			result.Identical = append(result.Identical, path)
		} else {
			result.Conflicts = append(result.Conflicts, path)
		}
	}
	sort.Strings(result.Identical)
	sort.Strings(result.Conflicts)

	result.OnlyInA, result.OnlyInB = lo.Difference(pathsA, pathsB)
	sort.Strings(result.OnlyInA)
	sort.Strings(result.OnlyInB)

	// Renamed: name-only paths of a shared digest
	for _, d := range lo.Intersect(digestsA, digestsB) {
		group := models.RenamedGroup{
			PathsA: lo.Filter(a.PathsFor(d), func(p string, _ int) bool { return !b.HasPath(p) }),
			PathsB: lo.Filter(b.PathsFor(d), func(p string, _ int) bool { return !a.HasPath(p) }),
		}
		if len(group.PathsA) == 0 && len(group.PathsB) == 0 {
			continue
		}
		result.Renamed[d] = group
	}

	return result
}
