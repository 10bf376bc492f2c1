package dmaps

import "gonum.org/v1/gonum/mat"

// UnionFind implements a disjoint-set data structure with path compression
// and union by size over the points 0..n-1.
type UnionFind struct {
	parent []int
	size   []int
	sets   int
}

// NewUnionFind creates a UnionFind in which every element is its own set.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	size := make([]int, n)
	for i := range parent {
		parent[i] = -1 // -1 means "is a root"
		size[i] = 1
	}
	return &UnionFind{parent: parent, size: size, sets: n}
}

// Find returns the root of the set containing x, with path compression.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != -1 {
		root = uf.parent[root]
	}
	for uf.parent[x] != -1 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// Union merges the sets containing x and y by attaching the smaller tree
// under the larger. Returns the new root.
func (uf *UnionFind) Union(x, y int) int {
	rootX := uf.Find(x)
	rootY := uf.Find(y)
	if rootX == rootY {
		return rootX
	}

	if uf.size[rootX] < uf.size[rootY] {
		rootX, rootY = rootY, rootX
	}
	uf.parent[rootY] = rootX
	uf.size[rootX] += uf.size[rootY]
	uf.sets--
	return rootX
}

// Sets returns the number of disjoint sets.
func (uf *UnionFind) Sets() int { return uf.sets }

// ConnectedComponents counts the connected components of the graph whose
// edges are the strictly positive off-diagonal affinities of w. An edge in
// either direction connects two points.
//
// A random walk on a graph with c components has eigenvalue 1 with
// multiplicity c, so c > 1 means the leading eigenvectors are not unique.
func ConnectedComponents(w mat.Matrix) int {
	n, _ := w.Dims()
	uf := NewUnionFind(n)
	_, sym := w.(mat.Symmetric)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if w.At(i, j) > 0 || (!sym && w.At(j, i) > 0) {
				uf.Union(i, j)
			}
		}
	}
	return uf.Sets()
}
