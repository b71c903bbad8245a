package reader

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/scene/kdtree"
	"github.com/achilleasa/prism/types"
)

func mockResource(payload string) *asset.Resource {
	return asset.NewResourceFromStream("test.obj", strings.NewReader(payload))
}

func TestFloatParser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 1 argument; got 0`
	_, err := parseFloat([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat([]string{"v", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat([]string{"v", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestFloatListParser(t *testing.T) {
	expError := `unsupported syntax for "sphere"; expected 4 arguments; got 2`
	_, err := parseFloats([]string{"sphere", "1", "2"}, 4)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloats([]string{"sphere", "1", "2", "x", "4"}, 4)
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloats([]string{"sphere", "1", "2", "3", "0.5"}, 4)
	if err != nil {
		t.Fatal(err)
	}

	expVal := []float64{1, 2, 3, 0.5}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec2Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 2 arguments; got 0`
	_, err := parseVec2([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec2([]string{"v", "not-a-float", "2"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec2([]string{"v", "3.14", "0"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec2{3.14, 0}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, expError},
		{"-2", 1, 0, -1, expError},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""}, // indices are relative to the including file
		{"-1", 10, 4, 9, ""},
		{"7", 10, 4, -1, expError},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestFaceParsing(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vn 0 0 2
vt 0 0
vt 1 0
vt 0 1
vt 1 1
# Comment
f 1/1/1 2/2/1 -2/-2/-1
f 1 2 4 3
`
	r := newWavefrontReader()
	err := r.parse(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	expPrims := 3
	if len(r.sc.Primitives) != expPrims {
		t.Fatalf("expected %d primitives; got %d", expPrims, len(r.sc.Primitives))
	}

	tri := r.sc.Primitives[0].(*scene.Triangle)
	if !tri.HasUV {
		t.Fatal("expected first triangle to have uv coords")
	}
	expUV := types.Vec2{0, 1}
	if tri.UVs[2] != expUV {
		t.Fatalf("expected third uv to be %v; got %v", expUV, tri.UVs[2])
	}
	expNormal := types.Vec3{0, 0, 1}
	if tri.Normals[1] != expNormal {
		t.Fatalf("expected vertex normals to be normalized to %v; got %v", expNormal, tri.Normals[1])
	}

	// The quad is split into a fan of two triangles without normals or uvs
	quad0 := r.sc.Primitives[1].(*scene.Triangle)
	quad1 := r.sc.Primitives[2].(*scene.Triangle)
	if quad0.HasUV || quad1.HasUV {
		t.Fatal("expected quad triangles not to have uv coords")
	}
	if !quad0.Normals[0].IsZero() {
		t.Fatalf("expected quad triangles to use the face normal; got vertex normal %v", quad0.Normals[0])
	}
	expVerts := [3]types.Vec3{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if quad1.Vertices != expVerts {
		t.Fatalf("expected second quad triangle vertices to be %v; got %v", expVerts, quad1.Vertices)
	}
	if quad1.Material == nil || quad1.Material != tri.Material {
		t.Fatal("expected faces without a usemtl statement to share the default material")
	}

	if len(r.objects) != 1 || r.objects[0].Name != "testObj" || r.objects[0].Faces != 3 {
		t.Fatalf("expected a single object with 3 faces; got %v", r.objects)
	}
}

func TestFaceParsingErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{
			"v 0 0 0\nf 1 1",
			`[test.obj: 2] error: unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got 2. Select the triangulation option in your exporter`,
		},
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2 3",
			"[test.obj: 5] error: expected each face argument to contain 2 indices; arg 1 contains 1 indices",
		},
		{
			"v 0 0 0\nf 1 2 3",
			"[test.obj: 2] error: could not parse vertex coord for face argument 1: index out of bounds",
		},
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\nf /1 2 3",
			"[test.obj: 4] error: face argument 0 does not include a vertex index",
		},
		{
			"usemtl foo",
			`[test.obj: 1] error: undefined material with name "foo"`,
		},
	}

	for idx, s := range specs {
		r := newWavefrontReader()
		err := r.parse(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error %q; got %v", idx, s.expError, err)
		}
	}
}

func TestEmptyObjectsAreDropped(t *testing.T) {
	payload := `
o empty
o full
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
g trailing
`
	r := newWavefrontReader()
	err := r.parse(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(r.objects) != 1 || r.objects[0].Name != "full" {
		t.Fatalf("expected only the non-empty object to be kept; got %d objects", len(r.objects))
	}
}

func TestSceneDirectives(t *testing.T) {
	payload := `
camera_eye 0 1 5
camera_look 0 1 0
camera_up 0 1 0
camera_fov 60
ambient 0.1 0.2 0.3
light_point 1 2 3 0.5 0.5 0.5
light_point 1 2 3 1 1 1 1 0.1 0.01
light_dir 0 -1 0 1 1 1
sphere 0 0 -5 1
box -1 -1 -1 1 1 1
`
	r := newWavefrontReader()
	sc, err := r.Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if sc.Camera.FOV != 60 {
		t.Fatalf("expected camera fov to be 60; got %f", sc.Camera.FOV)
	}
	expEye := types.Vec3{0, 1, 5}
	if sc.Camera.Eye != expEye {
		t.Fatalf("expected camera eye to be %v; got %v", expEye, sc.Camera.Eye)
	}

	// The camera basis must be refreshed after parsing
	ray := sc.Camera.RayThrough(0.5, 0.5)
	expDir := types.Vec3{0, 0, -1}
	if ray.Dir.Sub(expDir).Len() > 1e-9 {
		t.Fatalf("expected center ray direction to be %v; got %v", expDir, ray.Dir)
	}

	expAmbient := types.Vec3{0.1, 0.2, 0.3}
	if sc.Ambient != expAmbient {
		t.Fatalf("expected ambient to be %v; got %v", expAmbient, sc.Ambient)
	}

	if len(sc.Lights) != 3 {
		t.Fatalf("expected 3 lights; got %d", len(sc.Lights))
	}
	pl := sc.Lights[0].(*scene.PointLight)
	if pl.Constant != 1 || pl.Linear != 0 || pl.Quadratic != 0 {
		t.Fatalf("expected default point light falloff (1, 0, 0); got (%f, %f, %f)", pl.Constant, pl.Linear, pl.Quadratic)
	}
	pl = sc.Lights[1].(*scene.PointLight)
	if pl.Constant != 1 || pl.Linear != 0.1 || pl.Quadratic != 0.01 {
		t.Fatalf("expected point light falloff (1, 0.1, 0.01); got (%f, %f, %f)", pl.Constant, pl.Linear, pl.Quadratic)
	}
	dl := sc.Lights[2].(*scene.DirectionalLight)
	expOrientation := types.Vec3{0, -1, 0}
	if dl.Orientation != expOrientation {
		t.Fatalf("expected directional light orientation %v; got %v", expOrientation, dl.Orientation)
	}

	if len(sc.Primitives) != 2 {
		t.Fatalf("expected 2 primitives; got %d", len(sc.Primitives))
	}
	if _, isSphere := sc.Primitives[0].(*scene.Sphere); !isSphere {
		t.Fatalf("expected first primitive to be a sphere; got %T", sc.Primitives[0])
	}
	if _, isBox := sc.Primitives[1].(*scene.Box); !isBox {
		t.Fatalf("expected second primitive to be a box; got %T", sc.Primitives[1])
	}

	// Both primitives use the default material
	if len(sc.Materials) != 1 {
		t.Fatalf("expected the default material to be registered; got %d materials", len(sc.Materials))
	}
}

func TestSceneDirectiveErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{"sphere 0 0 0 -1", "[test.obj: 1] error: sphere radius must be positive; got -1"},
		{"sphere 0 0 0", `[test.obj: 1] error: unsupported syntax for "sphere"; expected 4 arguments; got 3`},
		{"box 0 0 0 1 1", `[test.obj: 1] error: unsupported syntax for "box"; expected 6 arguments; got 5`},
		{"light_point 0 0 0 1 1", `[test.obj: 1] error: unsupported syntax for "light_point"; expected 6 or 9 arguments: x y z r g b [c l q]; got 5`},
		{"light_dir 0 -1 0", `[test.obj: 1] error: unsupported syntax for "light_dir"; expected 6 arguments; got 3`},
		{"cubemap a b c", `[test.obj: 1] error: unsupported syntax for "cubemap"; expected 6 arguments: px nx py ny pz nz; got 3`},
	}

	for idx, s := range specs {
		r := newWavefrontReader()
		err := r.parse(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error %q; got %v", idx, s.expError, err)
		}
	}
}

func TestIncludeErrorStack(t *testing.T) {
	payload := `
v 0 0 0
call missing-file.obj
`
	r := newWavefrontReader()
	err := r.parse(mockResource(payload))
	if err == nil {
		t.Fatal("expected an error for a missing include")
	}
	if !strings.Contains(err.Error(), "referenced from test.obj:3 [call]") {
		t.Fatalf("expected error to include the reference stack; got %v", err)
	}
}

func TestMaterialLoader(t *testing.T) {
	payload := `
newmtl foo
Ka 0.1 0.1 0.1
Kd 1 1 1
Ks 0.1 0.2 0.3
Ke 0.4 0.5 0.6
Kr 0.7 0.7 0.7
Kt 0.8 0.8 0.8
Ns 32
Ni 1.5
# Unsupported properties are skipped
illum 2

newmtl bar
include foo
Kd 0 1 0
`
	r := newWavefrontReader()
	err := r.parseMaterials(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(r.materials) != 2 {
		t.Fatalf("expected to parse 2 materials; got %d", len(r.materials))
	}

	mat := r.materials[0]
	expVec3 := types.Vec3{0.1, 0.1, 0.1}
	if mat.Ka.Value != expVec3 {
		t.Fatalf("expected Ka to be %v; got %v", expVec3, mat.Ka.Value)
	}
	expVec3 = types.Vec3{1, 1, 1}
	if mat.Kd.Value != expVec3 {
		t.Fatalf("expected Kd to be %v; got %v", expVec3, mat.Kd.Value)
	}
	expVec3 = types.Vec3{0.1, 0.2, 0.3}
	if mat.Ks.Value != expVec3 {
		t.Fatalf("expected Ks to be %v; got %v", expVec3, mat.Ks.Value)
	}
	expVec3 = types.Vec3{0.4, 0.5, 0.6}
	if mat.Ke.Value != expVec3 {
		t.Fatalf("expected Ke to be %v; got %v", expVec3, mat.Ke.Value)
	}
	expVec3 = types.Vec3{0.7, 0.7, 0.7}
	if mat.Kr.Value != expVec3 {
		t.Fatalf("expected Kr to be %v; got %v", expVec3, mat.Kr.Value)
	}
	expVec3 = types.Vec3{0.8, 0.8, 0.8}
	if mat.Kt.Value != expVec3 {
		t.Fatalf("expected Kt to be %v; got %v", expVec3, mat.Kt.Value)
	}
	if mat.Shininess != 32 {
		t.Fatalf("expected Ns to be 32; got %f", mat.Shininess)
	}
	if mat.Index != 1.5 {
		t.Fatalf("expected Ni to be 1.5; got %f", mat.Index)
	}

	// Included materials copy the base material but keep their own name
	mat = r.materials[1]
	if mat.Name != "bar" {
		t.Fatalf("expected included material to be named bar; got %q", mat.Name)
	}
	if mat.Index != 1.5 {
		t.Fatalf("expected included material to inherit Ni 1.5; got %f", mat.Index)
	}
	expVec3 = types.Vec3{0, 1, 0}
	if mat.Kd.Value != expVec3 {
		t.Fatalf("expected Kd to be overridden to %v; got %v", expVec3, mat.Kd.Value)
	}
	if r.materials[0].Kd.Value == expVec3 {
		t.Fatal("expected include to copy the base material")
	}
}

func TestMaterialLoaderErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{"Kd 1 1 1", `[test.obj: 1] error: got "Kd" without a "newmtl"`},
		{"newmtl foo\nnewmtl foo", `[test.obj: 2] error: material "foo" already defined`},
		{"newmtl foo\ninclude bar", `[test.obj: 2] error: could not include unknown material "bar"`},
		{"newmtl foo\nNi 0", "[test.obj: 2] error: index of refraction must be positive; got 0"},
		{"newmtl foo\nKd 1 1", `[test.obj: 2] error: unsupported syntax for "Kd"; expected 3 arguments; got 2`},
	}

	for idx, s := range specs {
		r := newWavefrontReader()
		err := r.parseMaterials(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error %q; got %v", idx, s.expError, err)
		}
	}
}

func pngServer(t *testing.T, hits *int32) *httptest.Server {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
		png.Encode(w, img)
	})
	server := httptest.NewServer(serverFn)
	t.Cleanup(server.Close)
	return server
}

func TestMaterialLoaderWithTextures(t *testing.T) {
	var hits int32
	server := pngServer(t, &hits)

	payload := `
newmtl foo
map_Ka SERVER/ka.png
map_Kd SERVER/kd.png
map_Ks SERVER/ks.png
map_Ke SERVER/ke.png
map_Kr SERVER/kr.png
map_Kt SERVER/kt.png

newmtl bar
map_Kd SERVER/kd.png
`
	res := mockResource(strings.Replace(payload, "SERVER", server.URL, -1))
	r := newWavefrontReader()
	err := r.parseMaterials(res)
	if err != nil {
		t.Fatal(err)
	}

	expTexCount := 6
	if len(r.textures) != expTexCount {
		t.Fatalf("expected to load %d textures; got %d", expTexCount, len(r.textures))
	}

	mat := r.materials[0]
	params := []scene.MaterialParam{mat.Ka, mat.Kd, mat.Ks, mat.Ke, mat.Kr, mat.Kt}
	for idx, param := range params {
		if param.Texture == nil {
			t.Fatalf("[param %d] expected texture to be assigned", idx)
		}
	}

	expColor := types.Vec3{1, 0, 0}
	hit := &scene.Hit{UV: types.Vec2{0.5, 0.5}}
	if got := mat.Kd.At(hit); got != expColor {
		t.Fatalf("expected textured Kd to be %v; got %v", expColor, got)
	}

	// Shared textures are decoded once
	if r.materials[1].Kd.Texture != mat.Kd.Texture {
		t.Fatal("expected materials referencing the same texture to share it")
	}
}

func TestMaterialLoaderWithMissingTextures(t *testing.T) {
	payload := `
newmtl foo
map_Kd invalid.png
`
	r := newWavefrontReader()
	err := r.parseMaterials(mockResource(payload))
	if err == nil || !strings.Contains(err.Error(), "could not load texture") {
		t.Fatalf("expected a texture load error; got %v", err)
	}

	if len(r.textures) != 0 {
		t.Fatalf("expected texture list to be empty; got %d items", len(r.textures))
	}
}

func TestCubeMapDirective(t *testing.T) {
	var hits int32
	server := pngServer(t, &hits)

	payload := "cubemap SERVER/px.png SERVER/nx.png SERVER/py.png SERVER/ny.png SERVER/pz.png SERVER/nz.png"
	r := newWavefrontReader()
	err := r.parse(mockResource(strings.Replace(payload, "SERVER", server.URL, -1)))
	if err != nil {
		t.Fatal(err)
	}

	if r.sc.Environment == nil {
		t.Fatal("expected environment map to be defined")
	}
	for face, sampler := range r.sc.Environment.Faces {
		if sampler == nil {
			t.Fatalf("expected face %d to have a texture", face)
		}
	}

	expColor := types.Vec3{1, 0, 0}
	if got := r.sc.Environment.Color(types.Vec3{0, 0, -1}); got != expColor {
		t.Fatalf("expected environment color %v; got %v", expColor, got)
	}
	if atomic.LoadInt32(&hits) != 6 {
		t.Fatalf("expected 6 texture downloads; got %d", hits)
	}
}

func TestUnusedMaterialsArePruned(t *testing.T) {
	r := newWavefrontReader()
	err := r.parseMaterials(mockResource("newmtl used\nKd 1 0 0\nnewmtl unused\nKd 0 1 0"))
	if err != nil {
		t.Fatal(err)
	}

	sc, err := r.Read(mockResource("usemtl used\nsphere 0 0 0 1"))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Materials) != 1 || sc.Materials[0].Name != "used" {
		t.Fatalf("expected only the used material to be registered; got %d materials", len(sc.Materials))
	}
}

func TestReadScene(t *testing.T) {
	dir := t.TempDir()
	obj := `
mtllib scene.mtl
camera_eye 0 0 0
camera_look 0 0 -1
usemtl red
sphere 0 0 -5 1
call mesh.obj
sphere 0 10 -5 1
`
	mesh := `
v 5 0 -5
v 6 0 -5
v 5 1 -5
f 1 2 3
`
	mtl := `
newmtl red
Kd 1 0 0
`
	files := map[string]string{"scene.obj": obj, "mesh.obj": mesh, "scene.mtl": mtl}
	for name, payload := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0644); err != nil {
			t.Fatal(err)
		}
	}

	sc, err := ReadScene(filepath.Join(dir, "scene.obj"), kdtree.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	tree, ok := sc.Index().(*kdtree.Tree)
	if !ok {
		t.Fatalf("expected scene index to be a kd-tree; got %T", sc.Index())
	}
	if tree.Stats.Primitives != 3 {
		t.Fatalf("expected tree to index 3 primitives; got %d", tree.Stats.Primitives)
	}

	var hit scene.Hit
	if !sc.Intersect(sc.Camera.RayThrough(0.5, 0.5), &hit) {
		t.Fatal("expected center ray to hit the sphere")
	}
	if math.Abs(hit.T-4) > 1e-9 {
		t.Fatalf("expected hit distance 4; got %f", hit.T)
	}
	if hit.Material == nil || hit.Material.Name != "red" {
		t.Fatal("expected sphere to use the red material")
	}

	// Faces from the included mesh use the default material
	if len(sc.Materials) != 2 {
		t.Fatalf("expected 2 materials; got %d", len(sc.Materials))
	}

	specs := []struct {
		descr  string
		origin types.Vec3
		expMat string
	}{
		{"included mesh", types.XYZ(5.25, 0.25, 0), ""},
		{"sphere after include", types.XYZ(0, 10, 0), "red"},
	}
	for specIndex, spec := range specs {
		hit = scene.Hit{}
		r := scene.NewRay(spec.origin, types.XYZ(0, 0, -1), scene.VisibilityRay)
		if !sc.Intersect(r, &hit) {
			t.Errorf("[spec %d: %s] expected ray to hit", specIndex, spec.descr)
			continue
		}
		if hit.Material == nil || hit.Material.Name != spec.expMat {
			t.Errorf("[spec %d: %s] expected material %q; got %v", specIndex, spec.descr, spec.expMat, hit.Material)
		}
	}
}

func TestReadSceneErrors(t *testing.T) {
	_, err := ReadScene("scene.zip", kdtree.DefaultOptions())
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "scene.txt")
	if err = os.WriteFile(path, []byte("v 0 0 0"), 0644); err != nil {
		t.Fatal(err)
	}
	expError := "readScene: unsupported file format"
	_, err = ReadScene(path, kdtree.DefaultOptions())
	if err == nil || err.Error() != expError {
		t.Fatalf("expected error %q; got %v", expError, err)
	}
}
