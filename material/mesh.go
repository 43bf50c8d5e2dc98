// Package material converts triangle meshes into per-cell Yee update
// coefficients and PML decay maps. See spec.md §4.2.
package material

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Triangle is a single mesh face in whatever space its vertices were
// given (model-local until Model.WorldTriangles transforms it).
type Triangle struct {
	A, B, C [3]float64
}

// Mesh is an ordered list of triangles. Unreadable or missing source
// files are reported as fatal initialization errors per §7.
type Mesh struct {
	Triangles []Triangle
}

// LoadMesh reads a glTF 2.0 asset -- the format original_source's
// gltf_importer module ingests via the Rust gltf crate -- and flattens
// the default scene's node graph into a single triangle list, baking
// each node's local transform into its mesh's vertex positions the
// same way gltf_importer's process_node composes parent transforms
// before voxelizing.
func LoadMesh(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("material: reading mesh %q: %w", path, err)
	}
	if doc.Scene == nil || int(*doc.Scene) >= len(doc.Scenes) {
		return nil, fmt.Errorf("material: mesh %q has no default scene", path)
	}
	scene := doc.Scenes[*doc.Scene]

	var mesh Mesh
	for _, idx := range scene.Nodes {
		if err := walkNode(doc, idx, identity4(), &mesh); err != nil {
			return nil, fmt.Errorf("material: reading mesh %q: %w", path, err)
		}
	}
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("material: mesh %q has no faces (absent default scene)", path)
	}
	return &mesh, nil
}

func walkNode(doc *gltf.Document, nodeIdx uint32, parent mat4, mesh *Mesh) error {
	if int(nodeIdx) >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIdx)
	}
	node := doc.Nodes[nodeIdx]
	transform := mul4(parent, nodeLocalTransform(node))

	if node.Mesh != nil {
		if int(*node.Mesh) >= len(doc.Meshes) {
			return fmt.Errorf("mesh index %d out of range", *node.Mesh)
		}
		for _, prim := range doc.Meshes[*node.Mesh].Primitives {
			if err := appendPrimitive(doc, prim, transform, mesh); err != nil {
				return err
			}
		}
	}
	for _, child := range node.Children {
		if err := walkNode(doc, child, transform, mesh); err != nil {
			return err
		}
	}
	return nil
}

// appendPrimitive reads one primitive's POSITION accessor and index
// buffer (defaulting to sequential indices when the primitive is
// unindexed) and appends its triangles to mesh, mirroring
// gltf_importer's ReadIndices::U8/U16/U32 handling via modeler, which
// normalizes all three index widths to uint32 for us.
func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, transform mat4, mesh *Mesh) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	if int(posIdx) >= len(doc.Accessors) {
		return fmt.Errorf("position accessor %d out of range", posIdx)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("reading positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		if int(*prim.Indices) >= len(doc.Accessors) {
			return fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a := apply4(transform, positions[indices[i]])
		b := apply4(transform, positions[indices[i+1]])
		c := apply4(transform, positions[indices[i+2]])
		mesh.Triangles = append(mesh.Triangles, Triangle{A: a, B: b, C: c})
	}
	return nil
}

// mat4 is a column-major 4x4 affine transform, composed the same way
// gltf_importer folds a node's TRS (or explicit matrix) into the
// accumulated parent transform before it ever touches a vertex.
type mat4 [16]float32

func identity4() mat4 {
	return mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func mul4(a, b mat4) mat4 {
	var r mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

func apply4(m mat4, p [3]float32) [3]float64 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	return [3]float64{float64(x), float64(y), float64(z)}
}

// nodeLocalTransform resolves a node's local transform, preferring an
// explicit matrix when present (a nonzero value, since a decoded-but-
// absent matrix field is all zeros rather than identity) and falling
// back to composing translation/rotation/scale otherwise, each
// defaulted per the glTF spec when left at its zero value.
func nodeLocalTransform(n *gltf.Node) mat4 {
	if n.Matrix != ([16]float32{}) {
		return mat4(n.Matrix)
	}

	scale := n.Scale
	if scale == ([3]float32{}) {
		scale = [3]float32{1, 1, 1}
	}
	rot := n.Rotation
	if rot == ([4]float32{}) {
		rot = [4]float32{0, 0, 0, 1}
	}

	m := quatToMat4(rot)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] *= scale[col]
		}
	}
	m[12], m[13], m[14] = n.Translation[0], n.Translation[1], n.Translation[2]
	m[15] = 1
	return m
}

func quatToMat4(q [4]float32) mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	x2, y2, z2 := x+x, y+y, z+z
	xx, yy, zz := x*x2, y*y2, z*z2
	xy, xz, yz := x*y2, x*z2, y*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	return mat4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}
