package entity

import (
	"hash/fnv"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType tags the kind of collision geometry a ShapeInfo describes.
type ShapeType uint8

const (
	ShapeNone ShapeType = iota
	ShapeBox
	ShapeSphere
	ShapeCapsuleY
	ShapeConvexHull
	ShapeCompound
	ShapeTriangleMesh
)

func (t ShapeType) String() string {
	switch t {
	case ShapeNone:
		return "none"
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsuleY:
		return "capsule-y"
	case ShapeConvexHull:
		return "convex-hull"
	case ShapeCompound:
		return "compound"
	case ShapeTriangleMesh:
		return "triangle-mesh"
	default:
		return "unknown"
	}
}

// ShapeInfo is the tagged descriptor an Entity presents to shapefactory.Build
// and shapecache.Cache.Get. Equal descriptors must produce an equal Hash
// (spec.md §8.2 L2).
type ShapeInfo struct {
	Type            ShapeType
	HalfExtents     mgl64.Vec3
	PointCollection []mgl64.Vec3
	TriangleIndices []int32
	ModelURL        string
	Offset          *mgl64.Vec3
}

// HasOffset reports whether the descriptor carries a non-nil local offset.
func (s ShapeInfo) HasOffset() bool { return s.Offset != nil }

// Hash returns the 64-bit content hash used as the ShapeCache bucket key.
// It is built from two independent 32-bit halves (spec.md §4.A) so that a
// collision requires both halves to match, which is how ShapeCache resolves
// bucket collisions.
func (s ShapeInfo) Hash() uint64 {
	lo := fnv.New32a()
	hi := fnv.New32a()

	writeByte := func(h hashWriter, b byte) { h.Write([]byte{b}) }
	writeFloat := func(h hashWriter, f float64) {
		bits := math.Float64bits(f)
		var buf [8]byte
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	writeString := func(h hashWriter, str string) { h.Write([]byte(str)) }
	writeVec := func(h hashWriter, v mgl64.Vec3) {
		writeFloat(h, v[0])
		writeFloat(h, v[1])
		writeFloat(h, v[2])
	}

	writeByte(lo, byte(s.Type))
	writeVec(lo, s.HalfExtents)
	writeString(lo, s.ModelURL)
	if s.Offset != nil {
		writeByte(lo, 1)
		writeVec(lo, *s.Offset)
	} else {
		writeByte(lo, 0)
	}

	writeByte(hi, byte(s.Type))
	for _, p := range s.PointCollection {
		writeVec(hi, p)
	}
	for _, idx := range s.TriangleIndices {
		var buf [4]byte
		u := uint32(idx)
		for i := 0; i < 4; i++ {
			buf[i] = byte(u >> (8 * i))
		}
		hi.Write(buf[:])
	}

	return uint64(hi.Sum32())<<32 | uint64(lo.Sum32())
}

// hashWriter is the subset of hash.Hash32 used above, kept narrow so the
// fnv.New32a() choice can be swapped without touching call sites.
type hashWriter interface {
	Write(p []byte) (n int, err error)
}
