package dynamics

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildspark-labs/physcore/entity"
)

// wire format: a flat little-endian encoding. This is the core's own
// persisted/serialized form for Dynamics (not the excluded user-script
// factory) — mirrors the original engine's ObjectActionFactory dispatch on
// a type byte (see SPEC_FULL.md "Supplemented features" #2).

func writeHeader(buf *bytes.Buffer, d *baseDynamic) {
	writeString(buf, d.id)
	writeString(buf, d.tag)
	binary.Write(buf, binary.LittleEndian, d.owner)
	hasOther := d.other != nil
	binary.Write(buf, binary.LittleEndian, hasOther)
	if hasOther {
		binary.Write(buf, binary.LittleEndian, *d.other)
	}
	var expiryUnix int64
	if !d.expiry.IsZero() {
		expiryUnix = d.expiry.UnixNano()
	}
	binary.Write(buf, binary.LittleEndian, expiryUnix)
}

func readHeader(r *bytes.Reader, kind Kind) (baseDynamic, error) {
	id, err := readString(r)
	if err != nil {
		return baseDynamic{}, err
	}
	tag, err := readString(r)
	if err != nil {
		return baseDynamic{}, err
	}
	var owner entity.EntityID
	if err := binary.Read(r, binary.LittleEndian, &owner); err != nil {
		return baseDynamic{}, err
	}
	var hasOther bool
	if err := binary.Read(r, binary.LittleEndian, &hasOther); err != nil {
		return baseDynamic{}, err
	}
	var otherPtr *entity.EntityID
	if hasOther {
		var other entity.EntityID
		if err := binary.Read(r, binary.LittleEndian, &other); err != nil {
			return baseDynamic{}, err
		}
		otherPtr = &other
	}
	var expiryUnix int64
	if err := binary.Read(r, binary.LittleEndian, &expiryUnix); err != nil {
		return baseDynamic{}, err
	}
	var expiry time.Time
	if expiryUnix != 0 {
		expiry = time.Unix(0, expiryUnix)
	}
	return baseDynamic{id: id, owner: owner, other: otherPtr, tag: tag, expiry: expiry, kind: kind}, nil
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil && n > 0 {
		return "", err
	}
	return string(b), nil
}

func writeVec3(buf *bytes.Buffer, v mgl64.Vec3) {
	binary.Write(buf, binary.LittleEndian, v)
}

func readVec3(r *bytes.Reader) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeQuat(buf *bytes.Buffer, q mgl64.Quat) {
	binary.Write(buf, binary.LittleEndian, q.W)
	writeVec3(buf, q.V)
}

func readQuat(r *bytes.Reader) (mgl64.Quat, error) {
	var q mgl64.Quat
	if err := binary.Read(r, binary.LittleEndian, &q.W); err != nil {
		return q, err
	}
	v, err := readVec3(r)
	q.V = v
	return q, err
}

func serializeTargeted(t *Targeted) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, &t.baseDynamic)
	writeVec3(&buf, t.PositionalTarget)
	writeQuat(&buf, t.RotationalTarget)
	binary.Write(&buf, binary.LittleEndian, t.LinearTimescale)
	binary.Write(&buf, binary.LittleEndian, t.AngularTimescale)
	return buf.Bytes()
}

func serializeOffset(o *Offset) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, &o.baseDynamic)
	writeVec3(&buf, o.Point)
	binary.Write(&buf, binary.LittleEndian, o.LinearDistance)
	binary.Write(&buf, binary.LittleEndian, o.LinearTimescale)
	return buf.Bytes()
}

func serializeTravelOriented(to *TravelOriented) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, &to.baseDynamic)
	writeVec3(&buf, to.Forward)
	return buf.Bytes()
}

func serializeMotor(m *Motor) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, &m.baseDynamic)
	writeVec3(&buf, m.TargetAngularVelocity)
	binary.Write(&buf, binary.LittleEndian, m.Timescale)
	return buf.Bytes()
}

func serializeConstraint(c *Constraint) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, &c.baseDynamic)
	writeVec3(&buf, c.PivotSelf)
	writeVec3(&buf, c.PivotOther)
	writeVec3(&buf, c.AxisSelf)
	writeVec3(&buf, c.AxisOther)
	binary.Write(&buf, binary.LittleEndian, uint32(len(c.Limits)))
	for _, l := range c.Limits {
		binary.Write(&buf, binary.LittleEndian, l)
	}
	return buf.Bytes()
}

// Decode deserializes a Dynamic of the given kind from bytes (spec.md §4.C
// serialize/deserialize; SPEC_FULL.md supplemented feature #2). If the
// decoded dynamic's lifetime is already over, the caller should discard it
// per spec.md §7 TimeoutExpiredDynamic policy ("remove from registry at
// factory-time if expired during deserialization").
func Decode(kind Kind, data []byte) (Dynamic, error) {
	r := bytes.NewReader(data)
	base, err := readHeader(r, kind)
	if err != nil {
		return nil, fmt.Errorf("dynamics: decode header: %w", err)
	}

	switch kind {
	case KindTractor, KindHold, KindFarGrab:
		pos, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		rot, err := readQuat(r)
		if err != nil {
			return nil, err
		}
		var linTs, angTs float64
		if err := binary.Read(r, binary.LittleEndian, &linTs); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &angTs); err != nil {
			return nil, err
		}
		return &Targeted{baseDynamic: base, PositionalTarget: pos, RotationalTarget: rot, LinearTimescale: linTs, AngularTimescale: angTs}, nil

	case KindOffset:
		point, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		var dist, ts float64
		if err := binary.Read(r, binary.LittleEndian, &dist); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &ts); err != nil {
			return nil, err
		}
		return &Offset{baseDynamic: base, Point: point, LinearDistance: dist, LinearTimescale: ts}, nil

	case KindTravelOriented:
		fwd, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		return &TravelOriented{baseDynamic: base, Forward: fwd}, nil

	case KindMotor:
		target, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		var ts float64
		if err := binary.Read(r, binary.LittleEndian, &ts); err != nil {
			return nil, err
		}
		return &Motor{baseDynamic: base, TargetAngularVelocity: target, Timescale: ts}, nil

	case KindHinge, KindSlider, KindBallSocket, KindConeTwist:
		pivotSelf, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		pivotOther, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		axisSelf, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		axisOther, err := readVec3(r)
		if err != nil {
			return nil, err
		}
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		limits := make([]float64, n)
		for i := range limits {
			if err := binary.Read(r, binary.LittleEndian, &limits[i]); err != nil {
				return nil, err
			}
		}
		return &Constraint{baseDynamic: base, PivotSelf: pivotSelf, PivotOther: pivotOther, AxisSelf: axisSelf, AxisOther: axisOther, Limits: limits}, nil

	default:
		return nil, fmt.Errorf("dynamics: unknown kind %v", kind)
	}
}
