package pdg

import (
	"github.com/l3aro/go-partial-extract/pkg/cfg"
)

// controlSuccs returns the successor lists used for post-dominance: every
// CFG edge except implicit exception edges, plus the augmenting edge from
// entry to exit that makes the entry node a predicate over the body.
func controlSuccs(g *cfg.Graph) [][]int {
	n := len(g.Nodes)
	succs := make([][]int, n)
	add := func(from, to int) {
		for _, s := range succs[from] {
			if s == to {
				return
			}
		}
		succs[from] = append(succs[from], to)
	}
	for _, e := range g.Edges {
		if cfg.ControlEdge(e) {
			add(e.From, e.To)
		}
	}
	add(g.Entry().ID, g.Exit().ID)
	return succs
}

// postDominators computes the immediate post-dominator tree using the
// Cooper-Harvey-Kennedy algorithm on the reversed CFG rooted at exit.
//
// ipdom[i] == -1 means node i cannot reach exit (an infinite loop).
func postDominators(succs [][]int, exit int) []int {
	n := len(succs)
	preds := make([][]int, n)
	for from, ss := range succs {
		for _, to := range ss {
			preds[to] = append(preds[to], from)
		}
	}

	// Reverse postorder on the reversed CFG
	visited := make([]bool, n)
	post := make([]int, 0, n)
	var dfs func(int)
	dfs = func(u int) {
		visited[u] = true
		for _, p := range preds[u] {
			if !visited[p] {
				dfs(p)
			}
		}
		post = append(post, u)
	}
	dfs(exit)

	rpoNum := make([]int, n)
	for i := range rpoNum {
		rpoNum[i] = -1
	}
	rpo := make([]int, len(post))
	for i, u := range post {
		rpo[len(post)-1-i] = u
	}
	for i, u := range rpo {
		rpoNum[u] = i
	}

	ipdom := make([]int, n)
	for i := range ipdom {
		ipdom[i] = -1
	}
	ipdom[exit] = exit

	intersect := func(a, b int) int {
		for a != b {
			for rpoNum[a] > rpoNum[b] {
				a = ipdom[a]
			}
			for rpoNum[b] > rpoNum[a] {
				b = ipdom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, u := range rpo[1:] {
			// Predecessors in the reversed graph are successors in the CFG.
			next := -1
			for _, s := range succs[u] {
				if ipdom[s] == -1 {
					continue
				}
				if next == -1 {
					next = s
				} else {
					next = intersect(s, next)
				}
			}
			if next != -1 && ipdom[u] != next {
				ipdom[u] = next
				changed = true
			}
		}
	}
	return ipdom
}

// controlDependences emits one control dependence per (predicate, node)
// pair: for each CFG edge u->v of a node with several successors, every
// node on the post-dominator tree path from v up to ipdom(u), exclusive,
// depends on u.
func controlDependences(g *cfg.Graph) [][2]int {
	succs := controlSuccs(g)
	exit := g.Exit().ID
	ipdom := postDominators(succs, exit)

	seen := make(map[[2]int]bool)
	var deps [][2]int
	for u, ss := range succs {
		if len(ss) < 2 {
			continue
		}
		stop := ipdom[u]
		for _, v := range ss {
			for w := v; w != -1 && w != stop && w != exit; w = ipdom[w] {
				key := [2]int{u, w}
				if w == u || seen[key] {
					continue
				}
				seen[key] = true
				deps = append(deps, key)
			}
		}
	}
	return deps
}
