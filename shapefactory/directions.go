package shapefactory

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// canonicalDirections42 returns the 42 canonical unit directions used to
// reduce an overlarge convex hull (spec.md §4.B): one per face-center and
// edge-midpoint of a duodecahedron (a 12-sided dodecahedron has 12 faces,
// 30 edges -> 12 face-centers + 30 edge-midpoints = 42 directions).
//
// A regular dodecahedron's face normals coincide with the vertices of an
// icosahedron; its edge-midpoint directions coincide with the 30 edges of
// that icosahedron. Both are generated here from the golden ratio
// construction rather than hard-coded, which keeps the reduction provably
// uniform (spec.md L2-adjacent: equal descriptors still hash and reduce
// identically).
func canonicalDirections42() []mgl64.Vec3 {
	const phi = 1.618033988749895

	// 12 icosahedron vertices == 12 dodecahedron face-center directions.
	faceDirs := []mgl64.Vec3{
		{0, 1, phi}, {0, -1, phi}, {0, 1, -phi}, {0, -1, -phi},
		{1, phi, 0}, {-1, phi, 0}, {1, -phi, 0}, {-1, -phi, 0},
		{phi, 0, 1}, {-phi, 0, 1}, {phi, 0, -1}, {-phi, 0, -1},
	}

	edgeDirs := icosahedronEdgeMidpoints(faceDirs)

	all := make([]mgl64.Vec3, 0, len(faceDirs)+len(edgeDirs))
	for _, d := range faceDirs {
		all = append(all, d.Normalize())
	}
	all = append(all, edgeDirs...)
	return all
}

// icosahedronEdgeMidpoints derives the 30 edge-midpoint directions of the
// icosahedron formed by verts, by pairing each vertex with its five nearest
// neighbors (icosahedron vertices have exactly 5 edges each; 12*5/2 = 30).
func icosahedronEdgeMidpoints(verts []mgl64.Vec3) []mgl64.Vec3 {
	type pair struct {
		i, j int
		d    float64
	}
	seen := make(map[[2]int]bool)
	var mids []mgl64.Vec3

	for i := range verts {
		var neighbors []pair
		for j := range verts {
			if i == j {
				continue
			}
			d := verts[i].Sub(verts[j]).Len()
			neighbors = append(neighbors, pair{i, j, d})
		}
		// Sort neighbors by distance ascending; take 5 nearest.
		for a := 0; a < len(neighbors); a++ {
			for b := a + 1; b < len(neighbors); b++ {
				if neighbors[b].d < neighbors[a].d {
					neighbors[a], neighbors[b] = neighbors[b], neighbors[a]
				}
			}
		}
		for k := 0; k < 5 && k < len(neighbors); k++ {
			j := neighbors[k].j
			key := [2]int{i, j}
			if i > j {
				key = [2]int{j, i}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			mid := verts[i].Add(verts[j]).Mul(0.5)
			if mid.Len() < 1e-9 {
				continue
			}
			mids = append(mids, mid.Normalize())
		}
	}
	return mids
}

// reduceHull keeps, for each canonical direction, only the vertex that
// projects farthest along that direction (spec.md §4.B). A vertex that is
// farthest along several directions appears only once in the result.
func reduceHull(points []mgl64.Vec3) []mgl64.Vec3 {
	dirs := canonicalDirections42()
	out := make([]mgl64.Vec3, 0, len(dirs))
	seen := make(map[mgl64.Vec3]bool)

	for _, dir := range dirs {
		best := math.Inf(-1)
		var bestPoint mgl64.Vec3
		found := false
		for _, p := range points {
			proj := p.Dot(dir)
			if proj > best {
				best = proj
				bestPoint = p
				found = true
			}
		}
		if found && !seen[bestPoint] {
			seen[bestPoint] = true
			out = append(out, bestPoint)
		}
	}
	return out
}
