package relations

import (
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"resdir/internal/models"
)

type neighbor struct {
	classID    int64
	relationID int64
}

// rebuildClosure rederives class_closures from the direct edges, inside the
// caller's transaction. Edges are undirected, so one row per unordered pair
// (ancestor < descendant) records the shortest path between them. The class
// graph is small enough that a full rebuild beats tracking which rows an
// individual edge change invalidates.
func rebuildClosure(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&models.ClassClosure{}).Error; err != nil {
		return err
	}

	var edges []models.ClassRelation
	if err := tx.Find(&edges).Error; err != nil {
		return err
	}
	if len(edges) == 0 {
		return nil
	}

	adj := map[int64][]neighbor{}
	for _, e := range edges {
		adj[e.FromClassID] = append(adj[e.FromClassID], neighbor{e.ToClassID, e.ID})
		adj[e.ToClassID] = append(adj[e.ToClassID], neighbor{e.FromClassID, e.ID})
	}

	starts := make([]int64, 0, len(adj))
	for id := range adj {
		starts = append(starts, id)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var rows []models.ClassClosure
	for _, start := range starts {
		for _, r := range bfsFrom(start, adj) {
			// Keep one canonical row per pair.
			if r.DescendantClassID > r.AncestorClassID {
				rows = append(rows, r)
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 200).Error
}

// bfsFrom walks outward from start, recording depth and the relation-id path
// of the first (shortest) route to each reachable class.
func bfsFrom(start int64, adj map[int64][]neighbor) []models.ClassClosure {
	type visit struct {
		depth int
		path  []int64
	}
	seen := map[int64]visit{start: {}}
	queue := []int64{start}

	var rows []models.ClassClosure
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		at := seen[cur]
		for _, n := range adj[cur] {
			if _, ok := seen[n.classID]; ok {
				continue
			}
			path := make([]int64, len(at.path), len(at.path)+1)
			copy(path, at.path)
			path = append(path, n.relationID)
			seen[n.classID] = visit{depth: at.depth + 1, path: path}
			queue = append(queue, n.classID)
			rows = append(rows, models.ClassClosure{
				AncestorClassID:   start,
				DescendantClassID: n.classID,
				Depth:             at.depth + 1,
				Path:              joinIDs(path),
			})
		}
	}
	return rows
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
