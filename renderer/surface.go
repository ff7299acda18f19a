package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/richinsley/rosecolored/colorspace"
	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/inputs"
	"github.com/richinsley/rosecolored/picking"
	"github.com/richinsley/rosecolored/shader"
	"github.com/sirupsen/logrus"
)

// ErrUninitialized is returned by every Surface operation before a
// successful Initialize. It satisfies errors.Is(err, graphics.ErrContextAcquisition).
var ErrUninitialized = fmt.Errorf("surface is not initialized: %w", graphics.ErrContextAcquisition)

// PhotoObject is the name of the single quad a Surface registers.
const PhotoObject = "photo"

// State is the lifecycle state of a Surface.
type State int

const (
	Uninitialized State = iota
	Initialized
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DeviceFactory acquires the rendering device. It is called once, from the
// goroutine that will own the device.
type DeviceFactory func() (graphics.Device, error)

// MaskLookup resolves the mask under uv for the photo at photoURL.
type MaskLookup func(ctx context.Context, photoURL string, uv picking.UV) (string, error)

// SurfaceOptions configures a Surface. Only Loader is required.
type SurfaceOptions struct {
	Loader inputs.Loader
	// OnImageSize receives the natural size of each applied photo.
	OnImageSize func(width, height int)
	// OnError receives recoverable failures: image loads and mask lookups.
	OnError    func(error)
	MaskLookup MaskLookup
	// MaskFeather is the Gaussian sigma applied to masks before upload.
	MaskFeather float64
	Width       int
	Height      int
	Logger      *logrus.Entry
}

type resultKind int

const (
	photoResult resultKind = iota
	maskResult
	lookupResult
)

// result is a finished background job, applied on the render goroutine.
type result struct {
	kind    resultKind
	gen     uint64
	url     string
	img     image.Image
	maskURL string
	err     error
}

// Surface glues a photo URL, a mask URL and a target color into the
// recolor pipeline. All methods must be called from the goroutine that
// owns the device; loads run in the background and are applied by Poll or
// Await.
type Surface struct {
	opts    SurfaceOptions
	acquire DeviceFactory
	log     *logrus.Entry

	state   State
	dev     graphics.Device
	program *shader.Program
	scene   *Scene
	mesh    graphics.Mesh
	photo   *inputs.ImageChannel
	mask    *inputs.ImageChannel

	photoURL  string
	maskURL   string
	imageSize image.Point
	// URLs whose pixels are resident; a failed load falls back to these
	photoShown string
	maskShown  string

	ctx     context.Context
	cancel  context.CancelFunc
	results chan result
	pending int

	lookupGen    uint64
	lookupCancel context.CancelFunc

	width, height int
	dirty         bool
}

// NewSurface returns an uninitialized surface.
func NewSurface(acquire DeviceFactory, opts SurfaceOptions) *Surface {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	return &Surface{
		opts:    opts,
		acquire: acquire,
		log:     log.WithField("component", "surface"),
		width:   opts.Width,
		height:  opts.Height,
		results: make(chan result),
	}
}

// State reports the lifecycle state.
func (s *Surface) State() State { return s.state }

// Initialize acquires the device, builds the scene and compiles the
// recolor program. On failure the surface stays Uninitialized. Calling it
// again after success is a no-op.
func (s *Surface) Initialize() error {
	if s.state != Uninitialized {
		return nil
	}
	if s.acquire == nil {
		return fmt.Errorf("%w: no device factory", graphics.ErrContextAcquisition)
	}
	dev, err := s.acquire()
	if err != nil {
		if !errors.Is(err, graphics.ErrContextAcquisition) {
			err = fmt.Errorf("%w: %v", graphics.ErrContextAcquisition, err)
		}
		return fmt.Errorf("failed to initialize surface: %w", err)
	}
	if dev == nil {
		return fmt.Errorf("failed to initialize surface: %w", graphics.ErrContextAcquisition)
	}

	program, err := shader.NewProgram(dev)
	if err != nil {
		s.log.WithError(err).Error("recolor program failed to build")
		return fmt.Errorf("failed to initialize surface: %w", err)
	}
	mesh, err := NewPlane(dev)
	if err != nil {
		shader.Delete(dev, program)
		return fmt.Errorf("failed to initialize surface: %w", err)
	}

	s.dev = dev
	s.program = program
	s.mesh = mesh
	s.scene = NewScene(NewCamera(), s.log)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.results = make(chan result)
	s.state = Initialized
	s.dirty = true
	s.log.WithFields(logrus.Fields{"width": s.width, "height": s.height}).Info("surface initialized")
	return nil
}

// ensureReady creates both textures and registers the photo quad the first
// time a source is set.
func (s *Surface) ensureReady() error {
	if s.state == Ready {
		return nil
	}
	photo, err := inputs.NewImageChannel(s.dev, "photo", nil, inputs.WithLogger(s.log))
	if err != nil {
		return err
	}
	maskOpts := []inputs.ChannelOption{inputs.WithLogger(s.log)}
	if s.opts.MaskFeather > 0 {
		maskOpts = append(maskOpts, inputs.WithPrepare(inputs.PrepareMask(s.opts.MaskFeather)))
	}
	mask, err := inputs.NewImageChannel(s.dev, "mask", nil, maskOpts...)
	if err != nil {
		photo.Destroy()
		return err
	}
	cam := s.scene.Camera
	if _, err := s.scene.AddObject(ObjectConfig{
		Name:      PhotoObject,
		Mesh:      s.mesh,
		Material:  Material{Photo: photo, Mask: mask},
		Shader:    s.program,
		Transform: Scaled(cam.ScaleX, cam.ScaleY),
	}); err != nil {
		photo.Destroy()
		mask.Destroy()
		return err
	}
	s.photo, s.mask = photo, mask
	s.state = Ready
	s.log.Debug("surface ready")
	return nil
}

// SetPhotoURL replaces the photo. The previous photo stays on screen until
// the new one has loaded. An empty URL clears the photo.
func (s *Surface) SetPhotoURL(url string) error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	if err := s.ensureReady(); err != nil {
		return err
	}
	if url == s.photoURL {
		return nil
	}
	s.photoURL = url
	// a lookup against the old photo is no longer meaningful
	s.cancelLookup()
	if url == "" {
		s.imageSize = image.Point{}
		s.photoShown = ""
		s.layout()
		return s.photo.Reset()
	}
	s.load(s.photo, photoResult, url)
	return nil
}

// SetMaskURL replaces the mask. An empty URL resets it to blank, which
// leaves the photo untouched. A mask lookup still in flight is abandoned:
// the caller's choice is newer than its answer.
func (s *Surface) SetMaskURL(url string) error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	s.cancelLookup()
	return s.setMask(url)
}

func (s *Surface) setMask(url string) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if url == s.maskURL {
		return nil
	}
	s.maskURL = url
	if url == "" {
		s.maskShown = ""
		s.dirty = true
		return s.mask.Reset()
	}
	s.load(s.mask, maskResult, url)
	return nil
}

// layout sizes the photo quad so the drawn image matches picking.Map for
// the current viewport and photo.
func (s *Surface) layout() {
	s.dirty = true
	obj := s.scene.Object(PhotoObject)
	if obj == nil {
		return
	}
	cam := s.scene.Camera
	fx, fy, err := picking.Extent(picking.Box{Width: float64(s.width), Height: float64(s.height)},
		s.imageSize.X, s.imageSize.Y)
	if err != nil {
		// no photo yet: fill the viewport
		fx, fy = 1, 1
	}
	obj.Transform = Scaled(cam.ScaleX*fx, cam.ScaleY*fy)
}

// SetSources sets photo and mask together.
func (s *Surface) SetSources(photoURL, maskURL string) error {
	if err := s.SetPhotoURL(photoURL); err != nil {
		return err
	}
	return s.SetMaskURL(maskURL)
}

// SetColor changes the target color. Only the shader uniform changes.
func (s *Surface) SetColor(c colorspace.Color) error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	shader.SetColor(s.dev, s.program, c)
	s.dirty = true
	return nil
}

// Color reports the current target color.
func (s *Surface) Color() colorspace.Color {
	if s.program == nil {
		return colorspace.Gray
	}
	return s.program.Color
}

// PhotoURL and MaskURL report the most recently requested sources.
func (s *Surface) PhotoURL() string { return s.photoURL }
func (s *Surface) MaskURL() string  { return s.maskURL }

// ImageSize is the natural size of the photo on screen, or zero.
func (s *Surface) ImageSize() (int, int) { return s.imageSize.X, s.imageSize.Y }

// Size is the viewport size.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// RequestMask asks the mask lookup for the region under uv on the photo
// currently requested. The answer is applied through SetMaskURL when it
// arrives; an answer for a superseded request is dropped.
func (s *Surface) RequestMask(uv picking.UV) error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	if s.opts.MaskLookup == nil {
		return errors.New("no mask lookup configured")
	}
	if s.photoURL == "" {
		return errors.New("no photo to pick on")
	}
	uv = uv.Clamp()
	s.cancelLookup()
	s.lookupGen++
	gen, photoURL := s.lookupGen, s.photoURL
	ctx, cancel := context.WithCancel(s.ctx)
	s.lookupCancel = cancel
	lookup := s.opts.MaskLookup

	s.log.WithFields(logrus.Fields{"photo": photoURL, "uv": uv.String()}).Debug("requesting mask")
	out, done := s.results, s.ctx.Done()
	s.pending++
	go func() {
		maskURL, err := lookup(ctx, photoURL, uv)
		deliver(out, done, result{kind: lookupResult, gen: gen, url: photoURL, maskURL: maskURL, err: err})
	}()
	return nil
}

func (s *Surface) cancelLookup() {
	if s.lookupCancel != nil {
		s.lookupCancel()
		s.lookupCancel = nil
	}
	s.lookupGen++
}

func (s *Surface) load(ch *inputs.ImageChannel, kind resultKind, url string) {
	ctx, gen := ch.Begin(s.ctx)
	loader := s.opts.Loader
	out, done := s.results, s.ctx.Done()
	s.pending++
	go func() {
		var img image.Image
		var err error
		if loader == nil {
			err = fmt.Errorf("%w: no loader for %s", graphics.ErrImageLoad, url)
		} else {
			img, err = loader.Load(ctx, url)
		}
		deliver(out, done, result{kind: kind, gen: gen, url: url, img: img, err: err})
	}()
}

// deliver hands r to the render goroutine unless the surface shut down.
func deliver(out chan<- result, done <-chan struct{}, r result) {
	select {
	case out <- r:
	case <-done:
	}
}

// Pending reports how many background jobs have not been applied yet.
func (s *Surface) Pending() int { return s.pending }

// Poll applies every finished background job without blocking. The
// returned error joins the recoverable failures it applied; they have
// already been logged and passed to OnError.
func (s *Surface) Poll() error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	var errs []error
	for s.pending > 0 {
		select {
		case r := <-s.results:
			if err := s.apply(r); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
	return errors.Join(errs...)
}

// Await blocks until every background job, including any started while
// applying results, has been applied or ctx is done.
func (s *Surface) Await(ctx context.Context) error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	var errs []error
	for s.pending > 0 {
		select {
		case r := <-s.results:
			if err := s.apply(r); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}

func (s *Surface) apply(r result) error {
	s.pending--
	switch r.kind {
	case lookupResult:
		return s.applyLookup(r)
	case photoResult:
		return s.applyImage(s.photo, r)
	default:
		return s.applyImage(s.mask, r)
	}
}

func (s *Surface) applyImage(ch *inputs.ImageChannel, r result) error {
	if !ch.Current(r.gen) {
		s.log.WithFields(logrus.Fields{"channel": ch.Name(), "url": r.url}).Debug("discarding stale load")
		return nil
	}
	if r.err != nil {
		// forget the failed URL so setting it again retries
		if r.kind == photoResult {
			s.photoURL = s.photoShown
		} else {
			s.maskURL = s.maskShown
		}
		return s.report(fmt.Errorf("failed to load %s %s: %w", ch.Name(), r.url, r.err))
	}
	applied, err := ch.Commit(r.gen, r.img)
	if err != nil {
		return s.report(err)
	}
	if !applied {
		return nil
	}
	s.dirty = true
	// the resident texture may be smaller than the image after fitting
	res := ch.ChannelRes()
	fields := logrus.Fields{"url": r.url, "texture": fmt.Sprintf("%gx%g", res[0], res[1])}
	if r.kind != photoResult {
		s.maskShown = r.url
		s.log.WithFields(fields).Info("mask loaded")
	} else {
		b := r.img.Bounds()
		s.photoShown = r.url
		s.imageSize = image.Pt(b.Dx(), b.Dy())
		s.layout()
		fields["width"], fields["height"] = b.Dx(), b.Dy()
		s.log.WithFields(fields).Info("photo loaded")
		if s.opts.OnImageSize != nil {
			s.opts.OnImageSize(b.Dx(), b.Dy())
		}
	}
	return nil
}

func (s *Surface) applyLookup(r result) error {
	if r.gen != s.lookupGen || r.url != s.photoURL {
		s.log.WithField("photo", r.url).Debug("discarding stale mask lookup")
		return nil
	}
	s.lookupCancel = nil
	if r.err != nil {
		return s.report(fmt.Errorf("mask lookup failed: %w", r.err))
	}
	s.log.WithField("mask", r.maskURL).Info("mask selected")
	return s.setMask(r.maskURL)
}

func (s *Surface) report(err error) error {
	s.log.WithError(err).Warn("recoverable failure")
	if s.opts.OnError != nil {
		s.opts.OnError(err)
	}
	return err
}

// Dirty reports whether something changed since the last Render.
func (s *Surface) Dirty() bool { return s.dirty }

// Resize changes the viewport size.
func (s *Surface) Resize(width, height int) error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if width != s.width || height != s.height {
		s.width, s.height = width, height
		s.layout()
	}
	return nil
}

// Render draws the scene.
func (s *Surface) Render() error {
	if s.state == Uninitialized {
		return ErrUninitialized
	}
	s.scene.Render(s.dev, s.width, s.height)
	s.dirty = false
	return nil
}

// Snapshot reads back the last rendered frame.
func (s *Surface) Snapshot() (*image.RGBA, error) {
	if s.state == Uninitialized {
		return nil, ErrUninitialized
	}
	img, err := s.dev.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return img, nil
}

// Shutdown cancels background work and releases all device resources. The
// surface returns to Uninitialized.
func (s *Surface) Shutdown() {
	if s.state == Uninitialized {
		return
	}
	s.cancel()
	s.cancelLookup()
	if s.photo != nil {
		s.photo.Destroy()
		s.photo = nil
	}
	if s.mask != nil {
		s.mask.Destroy()
		s.mask = nil
	}
	s.dev.DeleteMesh(s.mesh)
	shader.Delete(s.dev, s.program)
	s.dev, s.program, s.scene = nil, nil, nil
	s.photoURL, s.maskURL = "", ""
	s.photoShown, s.maskShown = "", ""
	s.imageSize = image.Point{}
	s.pending = 0
	s.state = Uninitialized
	s.log.Info("surface shut down")
}
