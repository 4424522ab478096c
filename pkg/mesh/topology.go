package mesh

// Topology holds vertex incidence derived from a mesh's faces.
// Out-of-range vertex indices in faces are ignored.
type Topology struct {
	CornerStart  []int   // first corner of each face
	VertexCorner [][]int // corners referencing each vertex
	VertexFaces  [][]int // faces incident to each vertex
}

// BuildTopology computes incidence tables for m.
func BuildTopology(m *Mesh) *Topology {
	t := &Topology{
		CornerStart:  m.CornerOffsets(),
		VertexCorner: make([][]int, len(m.Positions)),
		VertexFaces:  make([][]int, len(m.Positions)),
	}
	for fi, face := range m.Faces {
		start := t.CornerStart[fi]
		for ci, v := range face {
			if v < 0 || v >= len(m.Positions) {
				continue
			}
			t.VertexCorner[v] = append(t.VertexCorner[v], start+ci)
			if n := len(t.VertexFaces[v]); n == 0 || t.VertexFaces[v][n-1] != fi {
				t.VertexFaces[v] = append(t.VertexFaces[v], fi)
			}
		}
	}
	return t
}
