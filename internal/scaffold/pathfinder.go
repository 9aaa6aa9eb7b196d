package scaffold

import (
	"container/heap"
	"math"
)

const (
	// adjacencyMargin is how close two platform decks must come on the XZ
	// plane before a minion can step between them.
	adjacencyMargin = 0.6
	// stepHeight is the largest deck height difference walkable without a
	// stair surface.
	stepHeight = 0.75
)

// Pathfinder runs A* over the surface adjacency graph of a registry.
type Pathfinder struct {
	registry *Registry
}

// NewPathfinder wraps a registry for path queries.
func NewPathfinder(registry *Registry) *Pathfinder {
	return &Pathfinder{registry: registry}
}

// FindPath returns an ordered waypoint path from one nav point to another, or
// nil when the surfaces are not connected. Raw (unsnapped) endpoints produce
// a direct two-point path; crossing between raw and snapped space is not
// navigable.
func (p *Pathfinder) FindPath(from, to NavPoint) *Path {
	if p == nil || p.registry == nil {
		return nil
	}
	if from.SurfaceID == "" || to.SurfaceID == "" {
		if from.SurfaceID == "" && to.SurfaceID == "" {
			return &Path{Points: []NavPoint{from, to}}
		}
		return nil
	}

	start, ok := p.registry.Surface(from.SurfaceID)
	if !ok {
		return nil
	}
	goal, ok := p.registry.Surface(to.SurfaceID)
	if !ok {
		return nil
	}
	if start.ID == goal.ID {
		return &Path{Points: []NavPoint{from, to}}
	}

	surfaces := p.surfacesFor(start.Parent)
	cameFrom := make(map[string]string, len(surfaces))
	costSoFar := map[string]float64{start.ID: 0}

	open := &navQueue{}
	heap.Init(open)
	heap.Push(open, navQueueItem{id: start.ID, priority: surfaceDistance(start, goal)})

	for open.Len() > 0 {
		current := heap.Pop(open).(navQueueItem)
		if current.id == goal.ID {
			return p.assemblePath(from, to, goal.ID, cameFrom)
		}
		currentSurface, ok := p.registry.Surface(current.id)
		if !ok {
			continue
		}
		for _, next := range surfaces {
			if next.ID == current.id || !surfacesConnected(currentSurface, next) {
				continue
			}
			cost := costSoFar[current.id] + surfaceDistance(currentSurface, next)
			if known, seen := costSoFar[next.ID]; seen && cost >= known {
				continue
			}
			costSoFar[next.ID] = cost
			cameFrom[next.ID] = current.id
			heap.Push(open, navQueueItem{id: next.ID, priority: cost + surfaceDistance(next, goal)})
		}
	}
	return nil
}

func (p *Pathfinder) surfacesFor(parent string) []*Surface {
	if p.registry == nil {
		return nil
	}
	return p.registry.byParent[parent]
}

// assemblePath walks cameFrom back from the goal and stitches the endpoint
// nav points around the intermediate platform centers.
func (p *Pathfinder) assemblePath(from, to NavPoint, goalID string, cameFrom map[string]string) *Path {
	chain := []string{goalID}
	for {
		previous, ok := cameFrom[chain[len(chain)-1]]
		if !ok {
			break
		}
		chain = append(chain, previous)
	}

	points := make([]NavPoint, 0, len(chain)+1)
	points = append(points, from)
	for i := len(chain) - 2; i >= 1; i-- {
		if s, ok := p.registry.Surface(chain[i]); ok {
			points = append(points, s.Center())
		}
	}
	points = append(points, to)
	return &Path{Points: points}
}

// surfacesConnected reports whether a minion can step directly from a to b:
// decks close enough on the XZ plane, and either within step height or linked
// through a stair surface.
func surfacesConnected(a, b *Surface) bool {
	gapX := intervalGap(a.MinX, a.MaxX, b.MinX, b.MaxX)
	gapZ := intervalGap(a.MinZ, a.MaxZ, b.MinZ, b.MaxZ)
	if gapX > adjacencyMargin || gapZ > adjacencyMargin {
		return false
	}
	if math.Abs(a.Y-b.Y) <= stepHeight {
		return true
	}
	return a.IsStair || b.IsStair
}

func surfaceDistance(a, b *Surface) float64 {
	ca, cb := a.Center(), b.Center()
	dx := ca.X - cb.X
	dz := ca.Z - cb.Z
	dy := ca.Y - cb.Y
	return math.Sqrt(dx*dx + dz*dz + dy*dy)
}

func intervalGap(aMin, aMax, bMin, bMax float64) float64 {
	if aMax < bMin {
		return bMin - aMax
	}
	if bMax < aMin {
		return aMin - bMax
	}
	return 0
}

type navQueueItem struct {
	id       string
	priority float64
}

type navQueue []navQueueItem

func (q navQueue) Len() int           { return len(q) }
func (q navQueue) Less(i, j int) bool { return q[i].priority < q[j].priority }
func (q navQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *navQueue) Push(x any)        { *q = append(*q, x.(navQueueItem)) }
func (q *navQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
