package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/polaris-denoise/types"
)

// Tolerance used when comparing two camera views.
const viewEpsilon = 1e-5

// Stores the ray directions at the four corners of the camera frustrum
// (top-left, top-right, bottom-left, bottom-right). Per pixel rays are
// generated by interpolating the corner rays.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Pending rotation in radians; applied and cleared by Update.
	Pitch float32
	Yaw   float32

	Frustrum Frustrum

	// Vertical FOV in degrees.
	FOV float32

	// Viewport width / height.
	Aspect float32

	// Adjust the frustrum so that Y is inverted
	InvertY bool
}

func NewCamera(fov float32) *Camera {
	c := &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Aspect:   1,
	}
	c.Update()
	return c
}

// Setup camera aspect ratio.
func (c *Camera) SetupProjection(aspect float32) {
	c.Aspect = aspect
	c.Update()
}

// Apply any pending pitch/yaw rotation and recalculate the frustrum.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	if c.Pitch != 0 || c.Yaw != 0 {
		pitchAxis := dir.Cross(c.Up).Normalize()
		pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
		yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

		orientQuat := pitchQuat.Mul(yawQuat).Normalize()
		dir = orientQuat.Rotate(dir)
		c.Pitch, c.Yaw = 0, 0
	}

	c.LookAt = c.Position.Add(dir)
	c.updateFrustrum()
}

// Rotate the camera position around its look-at point about the up axis.
func (c *Camera) Orbit(angle float32) {
	rot := types.QuatFromAxisAngle(c.Up.Normalize(), angle)
	offset := rot.Rotate(c.Position.Sub(c.LookAt))
	target := c.LookAt
	c.Position = target.Add(offset)
	c.LookAt = target
	c.updateFrustrum()
}

// Get the normalized direction of the ray through the viewport coordinates
// (u, v) in [0, 1]; (0, 0) is the top-left corner.
func (c *Camera) RayDir(u, v float32) types.Vec3 {
	top := c.Frustrum[0].Lerp(c.Frustrum[1], u)
	bottom := c.Frustrum[2].Lerp(c.Frustrum[3], u)
	return top.Lerp(bottom, v).Normalize()
}

// Get the unit view direction.
func (c *Camera) Forward() types.Vec3 {
	return c.LookAt.Sub(c.Position).Normalize()
}

// Check whether other produces the same view. Used by callers to decide
// when accumulated history must be invalidated.
func (c *Camera) ViewEquals(other *Camera) bool {
	if other == nil {
		return false
	}
	return types.ApproxEqual(c.Position, other.Position, viewEpsilon) &&
		types.ApproxEqual(c.Forward(), other.Forward(), viewEpsilon) &&
		types.ApproxEqual(c.Up, other.Up, viewEpsilon) &&
		math.Abs(float64(c.FOV-other.FOV)) < viewEpsilon &&
		math.Abs(float64(c.Aspect-other.Aspect)) < viewEpsilon &&
		c.InvertY == other.InvertY
}

// Get a copy of the camera.
func (c *Camera) Clone() *Camera {
	clone := *c
	return &clone
}

// Generate a ray vector for each corner of the camera frustrum from the
// camera basis and the half extents of the image plane at unit distance.
func (c *Camera) updateFrustrum() {
	forward := c.Forward()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward)

	halfH := float32(math.Tan(float64(c.FOV) * math.Pi / 360.0))
	halfW := halfH * c.Aspect

	var yUp float32 = 1.0
	if c.InvertY {
		yUp = -1.0
	}

	top := up.Mul(halfH * yUp)
	side := right.Mul(halfW)
	c.Frustrum[0] = forward.Add(top).Sub(side)
	c.Frustrum[1] = forward.Add(top).Add(side)
	c.Frustrum[2] = forward.Sub(top).Sub(side)
	c.Frustrum[3] = forward.Sub(top).Add(side)
}
