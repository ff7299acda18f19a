package renderer

import (
	"fmt"

	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/inputs"
	"github.com/richinsley/rosecolored/shader"
	"github.com/sirupsen/logrus"
)

// planeVertices is a unit quad centered on the origin, interleaved x, y, u, v.
var planeVertices = []float32{
	-0.5, -0.5, 0, 0,
	0.5, -0.5, 1, 0,
	0.5, 0.5, 1, 1,
	-0.5, 0.5, 0, 1,
}

var planeIndices = []uint16{0, 1, 2, 0, 2, 3}

// NewPlane uploads the unit quad.
func NewPlane(dev graphics.Device) (graphics.Mesh, error) {
	m, err := dev.NewMesh(planeVertices, planeIndices)
	if err != nil {
		return 0, fmt.Errorf("failed to create plane mesh: %w", err)
	}
	return m, nil
}

// Material binds the two textures the recolor program samples.
type Material struct {
	Photo inputs.IChannel
	Mask  inputs.IChannel
}

// ObjectConfig describes a renderable.
type ObjectConfig struct {
	Name      string
	Mesh      graphics.Mesh
	Material  Material
	Shader    *shader.Program
	Transform Transform
}

// SceneObject is a registered renderable. Its material textures may be
// updated in place; the object itself is never rebuilt.
type SceneObject struct {
	ObjectConfig
}

// Scene encapsulates the camera and objects drawn each frame.
type Scene struct {
	Camera     *Camera
	Background [4]float32
	objects    []*SceneObject
	byName     map[string]*SceneObject
	log        *logrus.Entry
}

// NewScene creates an empty scene viewed through cam.
func NewScene(cam *Camera, log *logrus.Entry) *Scene {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scene{
		Camera:     cam,
		Background: [4]float32{0, 0, 0, 1},
		byName:     make(map[string]*SceneObject),
		log:        log,
	}
}

// AddObject registers cfg. Names are unique within a scene.
func (s *Scene) AddObject(cfg ObjectConfig) (*SceneObject, error) {
	if cfg.Shader == nil {
		return nil, fmt.Errorf("object %q has no shader", cfg.Name)
	}
	if cfg.Material.Photo == nil || cfg.Material.Mask == nil {
		return nil, fmt.Errorf("object %q is missing a texture", cfg.Name)
	}
	if _, exists := s.byName[cfg.Name]; exists {
		return nil, fmt.Errorf("object %q is already in the scene", cfg.Name)
	}
	obj := &SceneObject{ObjectConfig: cfg}
	s.objects = append(s.objects, obj)
	s.byName[cfg.Name] = obj
	s.log.WithField("object", cfg.Name).Debug("added scene object")
	return obj, nil
}

// Object looks up a registered object by name.
func (s *Scene) Object(name string) *SceneObject {
	return s.byName[name]
}

// Len reports the number of registered objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Render clears the viewport and draws every object.
func (s *Scene) Render(dev graphics.Device, width, height int) {
	dev.Viewport(width, height)
	dev.Clear(s.Background)
	for _, obj := range s.objects {
		p := obj.Shader
		shader.Bind(dev, p)
		shader.SetClipMatrix(dev, p, ClipMatrix(s.Camera, obj.Transform))
		dev.BindTexture(shader.PhotoUnit, obj.Material.Photo.GetTexture())
		dev.BindTexture(shader.MaskUnit, obj.Material.Mask.GetTexture())
		dev.DrawMesh(obj.Mesh, p.Position, p.Texcoord)
		shader.Unbind(dev, p)
	}
}
