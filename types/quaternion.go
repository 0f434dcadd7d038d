package types

import "math"

// A rotation quaternion. Only the operations needed to orient the
// camera are implemented.
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{W: 1.0}
}

// Create a quaternion that rotates by angle radians around axis. The axis
// is expected to be normalized.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math.Sincos(float64(angle * 0.5))
	return Quat{
		V: axis.Mul(float32(sin)),
		W: float32(cos),
	}
}

// Rotate a vector by the rotation this quaternion represents.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v + 2q_w * (q_v x v) + 2q_v x (q_v x v)
	cross := q.V.Cross(v)
	return v.Add(cross.Mul(2 * q.W)).Add(q.V.Mul(2).Cross(cross))
}

// Compose two rotations. Multiplication is not commutative; q.Mul(q2)
// applies q2 first.
func (q Quat) Mul(q2 Quat) Quat {
	return Quat{
		V: q.V.Cross(q2.V).Add(q2.V.Mul(q.W)).Add(q.V.Mul(q2.W)),
		W: q.W*q2.W - q.V.Dot(q2.V),
	}
}

// Get quaternion norm.
func (q Quat) Len() float32 {
	return float32(math.Sqrt(float64(q.W*q.W + q.V.Dot(q.V))))
}

// Normalize the quaternion into a versor. A zero quaternion maps to the
// identity rotation.
func (q Quat) Normalize() Quat {
	length := q.Len()
	if length == 0 {
		return QuatIdent()
	}
	if float32(math.Abs(float64(1-length))) < floatCmpEpsilon {
		return q
	}
	return Quat{q.V.Mul(1 / length), q.W / length}
}
