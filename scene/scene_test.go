package scene

import (
	"math"
	"testing"

	"github.com/achilleasa/polaris-denoise/types"
)

func TestPrimitiveIntersection(t *testing.T) {
	mat := NewDiffuse(types.Vec3{1, 1, 1})
	type spec struct {
		prim      *Primitive
		origin    types.Vec3
		dir       types.Vec3
		hit       bool
		expT      float32
		expNormal types.Vec3
	}
	specs := []spec{
		{NewSphere(types.Vec3{0, 0, -5}, 1, mat), types.Vec3{}, types.Vec3{0, 0, -1}, true, 4, types.Vec3{0, 0, 1}},
		{NewSphere(types.Vec3{0, 0, -5}, 1, mat), types.Vec3{}, types.Vec3{0, 1, 0}, false, 0, types.Vec3{}},
		// From inside the sphere the far root is used
		{NewSphere(types.Vec3{0, 0, 0}, 2, mat), types.Vec3{}, types.Vec3{1, 0, 0}, true, 2, types.Vec3{1, 0, 0}},
		{NewPlane(types.Vec3{0, 1, 0}, -1, mat), types.Vec3{0, 1, 0}, types.Vec3{0, -1, 0}, true, 2, types.Vec3{0, 1, 0}},
		{NewPlane(types.Vec3{0, 1, 0}, -1, mat), types.Vec3{0, 1, 0}, types.Vec3{1, 0, 0}, false, 0, types.Vec3{}},
		{NewBox(types.Vec3{0, 0, -3}, types.Vec3{1, 1, 1}, mat), types.Vec3{}, types.Vec3{0, 0, -1}, true, 2, types.Vec3{0, 0, 1}},
		{NewBox(types.Vec3{3, 0, 0}, types.Vec3{1, 1, 1}, mat), types.Vec3{}, types.Vec3{1, 0, 0}, true, 2, types.Vec3{-1, 0, 0}},
		{NewBox(types.Vec3{3, 0, 0}, types.Vec3{1, 1, 1}, mat), types.Vec3{}, types.Vec3{0, 0, 1}, false, 0, types.Vec3{}},
	}

	for index, s := range specs {
		tHit, normal, ok := s.prim.Intersect(s.origin, s.dir, 1e-4, 100)
		if ok != s.hit {
			t.Fatalf("[spec %d] expected hit to be %t", index, s.hit)
		}
		if !ok {
			continue
		}
		if math.Abs(float64(tHit-s.expT)) > 1e-4 {
			t.Fatalf("[spec %d] expected t = %f; got %f", index, s.expT, tHit)
		}
		if !types.ApproxEqual(normal, s.expNormal, 1e-4) {
			t.Fatalf("[spec %d] expected normal %v; got %v", index, s.expNormal, normal)
		}
	}
}

func TestSceneIntersectPicksClosest(t *testing.T) {
	s := NewScene()
	mat := NewDiffuse(types.Vec3{1, 1, 1})
	s.AddMaterial(mat)
	far := NewSphere(types.Vec3{0, 0, -10}, 1, mat)
	near := NewSphere(types.Vec3{0, 0, -4}, 1, mat)
	for _, p := range []*Primitive{far, near} {
		if err := s.AddPrimitive(p); err != nil {
			t.Fatal(err)
		}
	}

	hit, ok := s.Intersect(types.Vec3{}, types.Vec3{0, 0, -1}, 1e-4, 100)
	if !ok || hit.Primitive != near {
		t.Fatalf("expected closest sphere to be hit")
	}
	if !types.ApproxEqual(hit.Point, types.Vec3{0, 0, -3}, 1e-4) {
		t.Fatalf("expected hit point (0, 0, -3); got %v", hit.Point)
	}
	if !s.Occluded(types.Vec3{}, types.Vec3{0, 0, -1}, 20, nil) {
		t.Fatal("expected segment to be occluded")
	}
	if s.Occluded(types.Vec3{}, types.Vec3{0, 0, -1}, 5, near) {
		t.Fatal("expected skipped primitive to be ignored")
	}
}

func TestAddPrimitiveErrors(t *testing.T) {
	s := NewScene()
	mat := NewDiffuse(types.Vec3{1, 1, 1})
	if err := s.AddPrimitive(NewSphere(types.Vec3{}, 1, mat)); err == nil {
		t.Fatal("expected error for primitive with unknown material")
	}
	if err := s.AddPrimitive(NewSphere(types.Vec3{}, 1, nil)); err == nil {
		t.Fatal("expected error for primitive without material")
	}
	s.AddMaterial(mat)
	if err := s.AddMaterial(mat); err == nil {
		t.Fatal("expected error when adding the same material twice")
	}
}

func TestDemoScene(t *testing.T) {
	s, err := NewDemoScene(16.0 / 9.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Lights()) != 1 {
		t.Fatalf("expected 1 light; got %d", len(s.Lights()))
	}

	// Every primary ray hits the enclosing room except those through the open front
	cam := s.Camera
	if _, ok := s.Intersect(cam.Position, cam.RayDir(0.5, 0.5), 1e-4, 100); !ok {
		t.Fatal("expected the center ray to hit the scene")
	}
}

func TestCameraFrustrum(t *testing.T) {
	c := NewCamera(90)
	c.SetupProjection(2)

	// tan(45deg) = 1: corners at (+-2, +-1, -1)
	exp := Frustrum{
		{-2, 1, -1},
		{2, 1, -1},
		{-2, -1, -1},
		{2, -1, -1},
	}
	for i := range exp {
		if !types.ApproxEqual(c.Frustrum[i], exp[i], 1e-5) {
			t.Fatalf("[spec %d] expected corner %v; got %v", i, exp[i], c.Frustrum[i])
		}
	}

	if dir := c.RayDir(0.5, 0.5); !types.ApproxEqual(dir, types.Vec3{0, 0, -1}, 1e-5) {
		t.Fatalf("expected center ray to point along -Z; got %v", dir)
	}

	c.InvertY = true
	c.Update()
	if c.Frustrum[0][1] >= 0 {
		t.Fatalf("expected inverted frustrum top-left corner to point down; got %v", c.Frustrum[0])
	}
}

func TestCameraRotation(t *testing.T) {
	c := NewCamera(60)
	c.Yaw = Deg2Rad(90)
	c.Update()

	if fwd := c.Forward(); !types.ApproxEqual(fwd, types.Vec3{-1, 0, 0}, 1e-5) {
		t.Fatalf("expected yaw of 90 degrees to face -X; got %v", fwd)
	}
	if c.Yaw != 0 || c.Pitch != 0 {
		t.Fatal("expected Update to consume pending rotation")
	}
}

func TestCameraViewEquals(t *testing.T) {
	c := NewCamera(45)
	c.Position = types.Vec3{0, 0, 5}
	c.LookAt = types.Vec3{}
	c.Update()

	same := c.Clone()
	if !c.ViewEquals(same) {
		t.Fatal("expected clone to share the view")
	}

	moved := c.Clone()
	moved.Orbit(Deg2Rad(10))
	if c.ViewEquals(moved) {
		t.Fatal("expected orbited camera to change the view")
	}
	if math.Abs(float64(moved.Position.Len()-5)) > 1e-4 {
		t.Fatalf("expected orbit to keep the distance to the target; got %f", moved.Position.Len())
	}

	// A full orbit returns to the starting view
	for i := 0; i < 35; i++ {
		moved.Orbit(Deg2Rad(10))
	}
	if !types.ApproxEqual(moved.Position, c.Position, 1e-3) {
		t.Fatalf("expected full orbit to return to %v; got %v", c.Position, moved.Position)
	}

	zoomed := c.Clone()
	zoomed.FOV = 30
	if c.ViewEquals(zoomed) || c.ViewEquals(nil) {
		t.Fatal("expected FOV change or nil camera to differ")
	}
}
