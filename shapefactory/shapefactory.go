// Package shapefactory builds opaque backend collision geometry from an
// entity.ShapeInfo descriptor (spec.md §4.B). Build is a pure function: the
// same descriptor always yields an equivalent Geometry, which is what lets
// shapecache.Cache key purely off ShapeInfo.Hash.
package shapefactory

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// hullReductionThreshold is the point count above which Build reduces a
// Compound/ConvexHull's points to the 42 canonical directions.
const hullReductionThreshold = 42

// Geometry is the backend-facing shape produced by Build. It purposefully
// does not expose backend internals; physengine never reads it. It reaches a
// simulation.BodyFactory as shapecache.Shape.Geometry, and that factory
// interprets Kind/Points/LocalTransform to construct real rigid-body shapes.
type Geometry struct {
	Kind            entity.ShapeType
	HalfExtents     mgl64.Vec3
	Radius          float64
	Points          []mgl64.Vec3
	TriangleIndices []int32
	// LocalTransform wraps the geometry in a compound with this offset when
	// ShapeInfo.Offset is set (spec.md §4.B).
	LocalTransform *mgl64.Vec3
}

// Factory implements shapecache.Builder.
type Factory struct{}

// IsMeshType reports whether info requires an async worker build.
func (Factory) IsMeshType(info entity.ShapeInfo) bool {
	return info.Type == entity.ShapeTriangleMesh
}

// Build is the pure function from spec.md §4.B.
func (Factory) Build(info entity.ShapeInfo) (any, error) {
	return build(info)
}

func build(info entity.ShapeInfo) (*Geometry, error) {
	var g *Geometry
	var err error

	switch info.Type {
	case entity.ShapeBox:
		g = &Geometry{Kind: entity.ShapeBox, HalfExtents: info.HalfExtents}
	case entity.ShapeSphere:
		g = &Geometry{Kind: entity.ShapeSphere, Radius: info.HalfExtents.X()}
	case entity.ShapeCapsuleY:
		g = &Geometry{Kind: entity.ShapeCapsuleY, Radius: info.HalfExtents.X(), HalfExtents: info.HalfExtents}
	case entity.ShapeConvexHull:
		g, err = buildHull(info)
	case entity.ShapeCompound:
		g, err = buildCompound(info)
	case entity.ShapeTriangleMesh:
		g, err = buildMesh(info)
	case entity.ShapeNone:
		return nil, fmt.Errorf("shapefactory: cannot build ShapeNone")
	default:
		return nil, fmt.Errorf("shapefactory: unknown shape type %v", info.Type)
	}
	if err != nil {
		return nil, err
	}

	if info.HasOffset() {
		g = wrapWithOffset(g, *info.Offset)
	}
	return g, nil
}

func buildHull(info entity.ShapeInfo) (*Geometry, error) {
	if len(info.PointCollection) == 0 {
		return nil, fmt.Errorf("shapefactory: convex hull with zero points")
	}
	points := info.PointCollection
	if len(points) > hullReductionThreshold {
		points = reduceHull(points)
	}
	return &Geometry{Kind: entity.ShapeConvexHull, Points: points}, nil
}

func buildCompound(info entity.ShapeInfo) (*Geometry, error) {
	if len(info.PointCollection) == 0 {
		return nil, fmt.Errorf("shapefactory: compound with zero points")
	}
	points := info.PointCollection
	if len(points) > hullReductionThreshold {
		points = reduceHull(points)
	}
	return &Geometry{Kind: entity.ShapeCompound, Points: points}, nil
}

func buildMesh(info entity.ShapeInfo) (*Geometry, error) {
	if len(info.PointCollection) == 0 || len(info.TriangleIndices) == 0 {
		return nil, fmt.Errorf("shapefactory: triangle mesh with no geometry (model=%s)", info.ModelURL)
	}
	return &Geometry{
		Kind:            entity.ShapeTriangleMesh,
		Points:          info.PointCollection,
		TriangleIndices: info.TriangleIndices,
	}, nil
}

// wrapWithOffset wraps g in a compound whose single child carries a local
// transform of offset, per spec.md §4.B ("when the resulting shape has an
// offset, wraps it in a compound with a local transform of that offset").
func wrapWithOffset(g *Geometry, offset mgl64.Vec3) *Geometry {
	return &Geometry{
		Kind:           entity.ShapeCompound,
		Points:         g.Points,
		HalfExtents:    g.HalfExtents,
		Radius:         g.Radius,
		LocalTransform: &offset,
	}
}
