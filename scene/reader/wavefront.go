package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/asset/texture"
	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/types"
)

type wavefrontMaterial struct {
	*scene.Material

	// True if this material is used by at least one primitive.
	Used bool
}

type wavefrontObject struct {
	Name  string
	Faces int
}

type wavefrontSceneReader struct {
	logger log.Logger

	// The parsed scene.
	sc *scene.Scene

	// A map of material names to parsed wavefront materials
	matNameToIndex map[string]int

	// Currently selected material.
	curMaterial *wavefrontMaterial

	// Parsed wavefront materials.
	materials []*wavefrontMaterial

	// Loaded textures indexed by their resolved path.
	textures map[string]*texture.Texture

	// Named objects in definition order.
	objects []*wavefrontObject

	// List of vertices, normals and uv coords.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

// Create a new text scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		sc:             scene.NewScene(),
		matNameToIndex: make(map[string]int, 0),
		textures:       make(map[string]*texture.Texture, 0),
		vertexList:     make([]types.Vec3, 0),
		normalList:     make([]types.Vec3, 0),
		uvList:         make([]types.Vec2, 0),
		errStack:       make([]string, 0),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// Parse scene
	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	// Prune unused materials
	err = r.processMaterials()
	if err != nil {
		return nil, err
	}

	r.sc.Camera.Update()

	r.logger.Noticef(
		"parsed scene in %d ms: %d primitives, %d materials, %d lights, %d textures",
		time.Since(start).Nanoseconds()/1e6,
		len(r.sc.Primitives), len(r.sc.Materials), len(r.sc.Lights), len(r.textures),
	)

	return r.sc, nil
}

// Register the materials that are in use with the scene.
func (r *wavefrontSceneReader) processMaterials() error {
	pruned := 0
	for _, wfMat := range r.materials {
		if !wfMat.Used {
			r.logger.Infof("skipping unused material %q", wfMat.Name)
			pruned++
			continue
		}

		if err := r.sc.AddMaterial(wfMat.Material); err != nil {
			return err
		}
	}

	if pruned > 0 {
		r.logger.Noticef("pruned %d unused materials", pruned)
	}
	return nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Create and select a default material for surfaces not using one.
func (r *wavefrontSceneReader) defaultMaterial() *wavefrontMaterial {
	matName := ""

	// Search for material in referenced list
	matIndex, exists := r.matNameToIndex[matName]
	if !exists {
		// Add it now
		r.materials = append(r.materials, &wavefrontMaterial{Material: scene.NewMaterial(matName)})
		matIndex = len(r.materials) - 1
		r.matNameToIndex[matName] = matIndex
	}
	r.curMaterial = r.materials[matIndex]
	return r.curMaterial
}

// Get the material for the next primitive and flag it as being in use so
// it does not get pruned.
func (r *wavefrontSceneReader) useMaterial() *scene.Material {
	if r.curMaterial == nil {
		r.curMaterial = r.defaultMaterial()
	}
	r.curMaterial.Used = true
	return r.curMaterial.Material
}

// Append primitives to the scene and to the currently open object.
func (r *wavefrontSceneReader) addPrimitives(prims ...scene.Primitive) error {
	// If no object has been defined create a default one
	if len(r.objects) == 0 {
		r.objects = append(r.objects, &wavefrontObject{Name: "default"})
	}

	for _, prim := range prims {
		if err := r.sc.AddPrimitive(prim); err != nil {
			return err
		}
	}
	r.objects[len(r.objects)-1].Faces += len(prims)
	return nil
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex/uv/normal offsets we can apply them
	// while parsing faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			switch lineTokens[0] {
			case "call":
				// Included objects start without an active material
				prevMaterial := r.curMaterial
				r.curMaterial = nil
				err = r.parse(incRes)
				r.curMaterial = prevMaterial
			case "mtllib":
				err = r.parseMaterials(incRes)
			}
			incRes.Close()

			if err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			// Lookup material
			matName := lineTokens[1]
			matIndex, exists := r.matNameToIndex[matName]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, matName)
			}

			// Activate material
			r.curMaterial = r.materials[matIndex]
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.verifyLastParsedObject()
			r.objects = append(r.objects, &wavefrontObject{Name: lineTokens[1]})
		case "f":
			triList, err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			prims := make([]scene.Primitive, len(triList))
			for index, tri := range triList {
				prims[index] = tri
			}
			if err = r.addPrimitives(prims...); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "sphere":
			args, err := parseFloats(lineTokens, 4)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			if args[3] <= 0 {
				return r.emitError(res.Path(), lineNum, "sphere radius must be positive; got %v", args[3])
			}

			sphere := scene.NewSphere(types.XYZ(args[0], args[1], args[2]), args[3], r.useMaterial())
			if err = r.addPrimitives(sphere); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "box":
			args, err := parseFloats(lineTokens, 6)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}

			box := scene.NewBox(types.XYZ(args[0], args[1], args[2]), types.XYZ(args[3], args[4], args[5]), r.useMaterial())
			if err = r.addPrimitives(box); err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "light_point":
			light, err := parsePointLight(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.sc.AddLight(light)
		case "light_dir":
			args, err := parseFloats(lineTokens, 6)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.sc.AddLight(scene.NewDirectionalLight(types.XYZ(args[0], args[1], args[2]), types.XYZ(args[3], args[4], args[5])))
		case "ambient":
			r.sc.Ambient, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "cubemap":
			if len(lineTokens) != 7 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "cubemap"; expected 6 arguments: px nx py ny pz nz; got %d`, len(lineTokens)-1)
			}

			cubeMap := &scene.CubeMap{}
			for face := scene.CubeFacePosX; face <= scene.CubeFaceNegZ; face++ {
				tex, err := r.loadTexture(lineTokens[int(face)+1], res)
				if err != nil {
					return r.emitError(res.Path(), lineNum, err.Error())
				}
				cubeMap.Faces[face] = tex
			}
			r.sc.Environment = cubeMap
		case "camera_fov":
			r.sc.Camera.FOV, err = parseFloat(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_eye":
			r.sc.Camera.Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_look":
			r.sc.Camera.Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		case "camera_up":
			r.sc.Camera.Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		default:
			r.logger.Debugf(`%s:%d: ignoring unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}

	r.verifyLastParsedObject()
	return nil
}

// Drop the last parsed object if it contains no primitives.
func (r *wavefrontSceneReader) verifyLastParsedObject() {
	lastIndex := len(r.objects) - 1
	if lastIndex >= 0 && r.objects[lastIndex].Faces == 0 {
		r.logger.Warningf(`dropping object "%s" as it contains no polygons`, r.objects[lastIndex].Name)
		r.objects = r.objects[:lastIndex]
	}
}

// Parse face definition. Each face definitions consists of 3 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list.
//
// This method only works with triangular/quad faces and will return an error if a
// face with more than 4 vertices is encountered.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([]*scene.Triangle, error) {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var vertices [4]types.Vec3
	var normals [4]types.Vec3
	var uv [4]types.Vec2
	var vOffset int
	var err error
	expIndices := 0
	uvCount, normalCount := 0, 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[vOffset]

		// Parse UV coords if specified
		if expIndices > 1 && vTokens[1] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset)
			if err != nil {
				return nil, fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
			uv[arg] = r.uvList[vOffset]
			uvCount++
		}

		// Parse normal coords if specified
		if expIndices > 2 && vTokens[2] != "" {
			vOffset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[vOffset].Normalize()
			normalCount++
		}
	}

	material := r.useMaterial()
	argCount := len(lineTokens) - 1

	// Assemble vertices into one or two triangles depending on whether we are parsing a triangular or a quad face
	triangles := make([]*scene.Triangle, 0)
	indiceList := [][3]int{{0, 1, 2}}
	if argCount == 4 {
		indiceList = append(indiceList, [3]int{0, 2, 3})
	}

	for _, indices := range indiceList {
		tri := &scene.Triangle{Material: material}
		for triIndex, selectIndex := range indices {
			tri.Vertices[triIndex] = vertices[selectIndex]

			// Partial normal or uv lists fall back to the face normal and
			// barycentric coords.
			if normalCount == argCount {
				tri.Normals[triIndex] = normals[selectIndex]
			}
			tri.UVs[triIndex] = uv[selectIndex]
		}
		tri.HasUV = uvCount == argCount
		tri.Update()
		triangles = append(triangles, tri)
	}

	return triangles, nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)

	var curMaterial *wavefrontMaterial = nil
	var matName string = ""

	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.matNameToIndex[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}

			// Allocate new material and add it to library
			curMaterial = &wavefrontMaterial{Material: scene.NewMaterial(matName)}
			r.materials = append(r.materials, curMaterial)
			r.matNameToIndex[matName] = len(r.materials) - 1
		default:
			if curMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			switch lineTokens[0] {
			case "include":
				if len(lineTokens) < 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				baseMaterialIndex, exists := r.matNameToIndex[lineTokens[1]]
				if !exists {
					return r.emitError(res.Path(), lineNum, `could not include unknown material "%s"`, lineTokens[1])
				}

				// Overwrite material but keep the original name
				*curMaterial.Material = *r.materials[baseMaterialIndex].Material
				curMaterial.Name = matName
			case "Ka", "Kd", "Ks", "Ke", "Kr", "Kt":
				var v types.Vec3
				v, err = parseVec3(lineTokens)
				if err == nil {
					curMaterial.param(lineTokens[0]).Value = v
				}
			case "Ns":
				curMaterial.Shininess, err = parseFloat(lineTokens)
			case "Ni":
				curMaterial.Index, err = parseFloat(lineTokens)
				if err == nil && curMaterial.Index <= 0 {
					err = fmt.Errorf(`index of refraction must be positive; got %v`, curMaterial.Index)
				}
			case "map_Ka", "map_Kd", "map_Ks", "map_Ke", "map_Kr", "map_Kt":
				if len(lineTokens) != 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
				}

				var tex *texture.Texture
				tex, err = r.loadTexture(lineTokens[1], res)
				if err == nil {
					curMaterial.param(strings.TrimPrefix(lineTokens[0], "map_")).Texture = tex
				}
			default:
				r.logger.Debugf(`%s:%d: ignoring unsupported material property "%s"`, res.Path(), lineNum, lineTokens[0])
			}

			// Report any errors
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err.Error())
	}

	return nil
}

// Map a material property key to the matching material parameter.
func (wf *wavefrontMaterial) param(key string) *scene.MaterialParam {
	switch key {
	case "Ka":
		return &wf.Ka
	case "Ks":
		return &wf.Ks
	case "Ke":
		return &wf.Ke
	case "Kr":
		return &wf.Kr
	case "Kt":
		return &wf.Kt
	default:
		return &wf.Kd
	}
}

// Load a texture relative to res. Textures referenced by more than one
// material are only loaded once.
func (r *wavefrontSceneReader) loadTexture(path string, relTo *asset.Resource) (*texture.Texture, error) {
	texRes, err := asset.NewResource(path, relTo)
	if err != nil {
		return nil, fmt.Errorf("could not load texture: %s", err.Error())
	}
	defer texRes.Close()

	if tex, exists := r.textures[texRes.Path()]; exists {
		return tex, nil
	}

	tex, err := texture.New(texRes)
	if err != nil {
		return nil, err
	}

	r.logger.Infof(`loaded %s texture "%s" (%dx%d)`, tex.Format, texRes.Path(), tex.Width, tex.Height)
	r.textures[texRes.Path()] = tex
	return tex, nil
}

// Parse point light definition. Definitions use the following format:
// light_point x y z r g b [constant linear quadratic]
func parsePointLight(lineTokens []string) (*scene.PointLight, error) {
	if len(lineTokens) != 7 && len(lineTokens) != 10 {
		return nil, fmt.Errorf(`unsupported syntax for "light_point"; expected 6 or 9 arguments: x y z r g b [c l q]; got %d`, len(lineTokens)-1)
	}

	args, err := parseFloats(lineTokens, len(lineTokens)-1)
	if err != nil {
		return nil, err
	}

	light := scene.NewPointLight(types.XYZ(args[0], args[1], args[2]), types.XYZ(args[3], args[4], args[5]))
	if len(args) == 9 {
		light.Constant, light.Linear, light.Quadratic = args[6], args[7], args[8]
	}
	return light, nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat(lineTokens []string) (float64, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	return strconv.ParseFloat(lineTokens[1], 64)
}

// Parse count scalar arguments.
func parseFloats(lineTokens []string, count int) ([]float64, error) {
	if len(lineTokens) < count+1 {
		return nil, fmt.Errorf(`unsupported syntax for "%s"; expected %d arguments; got %d`, lineTokens[0], count, len(lineTokens)-1)
	}

	out := make([]float64, count)
	for tokIdx := 1; tokIdx <= count; tokIdx++ {
		v, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return nil, err
		}
		out[tokIdx-1] = v
	}
	return out, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 64)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = coord
	}
	return v, nil
}
