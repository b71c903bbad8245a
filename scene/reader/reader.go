package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/scene/kdtree"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file and build its kd-tree index using the supplied
// options. The file may be a local path, an http(s) URL or an s3 location.
func ReadScene(filename string, opts kdtree.Options) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(strings.ToLower(filename), ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format")
	}

	sc, err := reader.Read(res)
	if err != nil {
		return nil, err
	}

	sc.SetIndex(kdtree.Build(sc.Primitives, opts))
	return sc, nil
}
