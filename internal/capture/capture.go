package capture

import (
	"context"
	"fmt"
	"log/slog"

	"mcqmark/internal/model"
)

// State is the controller's position in the capture cycle.
type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateReady                State = "ready"
	StateCapturing            State = "capturing"
	StateCaptured             State = "captured"
)

// PermissionStatus is the camera permission as reported by the platform.
type PermissionStatus string

const (
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
)

// Camera abstracts the device camera: permission handling and capture.
type Camera interface {
	// Permission reports the current permission status without prompting.
	Permission(ctx context.Context) (PermissionStatus, error)
	// RequestPermission prompts the user and reports the resulting status.
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	// Capture takes a photo and returns it as a raw image.
	Capture(ctx context.Context) (model.RawImage, error)
}

// Gallery abstracts user-driven image selection. Pick returns ok=false when
// the user cancels, which is a normal outcome rather than an error.
type Gallery interface {
	Pick(ctx context.Context) (img model.RawImage, ok bool, err error)
}

// PermissionDeniedError reports that the user refused camera access.
type PermissionDeniedError struct{}

func (e *PermissionDeniedError) Error() string { return "camera permission denied" }

// CaptureError reports a hardware or capture failure.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return "capture failed: " + e.Err.Error() }
func (e *CaptureError) Unwrap() error { return e.Err }

// Controller drives the capture cycle through
// Idle -> RequestingPermission -> Ready -> Capturing -> Captured. It runs on a
// single logical flow; transitions are not safe for concurrent use.
type Controller struct {
	camera  Camera
	gallery Gallery
	state   State
}

// NewController creates a controller in the Idle state. Either collaborator
// may be nil when the corresponding source is unavailable.
func NewController(camera Camera, gallery Gallery) *Controller {
	return &Controller{camera: camera, gallery: gallery, state: StateIdle}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Reset returns the controller to Idle, discarding the current cycle. Called
// on cancel and after the captured image is handed off to the grading stage.
func (c *Controller) Reset() { c.state = StateIdle }

// RequestCameraAccess moves the controller to Ready, prompting the user when
// the permission status is undetermined. A refusal surfaces as
// *PermissionDeniedError and returns the controller to Idle.
func (c *Controller) RequestCameraAccess(ctx context.Context) error {
	if c.camera == nil {
		return fmt.Errorf("no camera available")
	}

	status, err := c.camera.Permission(ctx)
	if err != nil {
		return fmt.Errorf("check camera permission: %w", err)
	}

	if status == PermissionUndetermined {
		c.state = StateRequestingPermission
		status, err = c.camera.RequestPermission(ctx)
		if err != nil {
			c.state = StateIdle
			return fmt.Errorf("request camera permission: %w", err)
		}
	}

	if status != PermissionGranted {
		c.state = StateIdle
		return &PermissionDeniedError{}
	}

	c.state = StateReady
	return nil
}

// CaptureFromCamera takes a photo. Only valid in Ready (or a retried
// Capturing); a hardware failure surfaces as *CaptureError and leaves the
// controller in Ready so the user can try again.
func (c *Controller) CaptureFromCamera(ctx context.Context) (model.RawImage, error) {
	if c.state != StateReady && c.state != StateCapturing {
		return model.RawImage{}, fmt.Errorf("cannot capture in state %q", c.state)
	}

	c.state = StateCapturing
	img, err := c.camera.Capture(ctx)
	if err != nil {
		c.state = StateReady
		return model.RawImage{}, &CaptureError{Err: err}
	}

	c.state = StateCaptured
	return img, nil
}

// PickFromGallery lets the user select an existing image. Cancellation
// returns ok=false with no error and leaves the controller where it was.
func (c *Controller) PickFromGallery(ctx context.Context) (model.RawImage, bool, error) {
	if c.gallery == nil {
		return model.RawImage{}, false, fmt.Errorf("no gallery available")
	}
	if c.state == StateCapturing || c.state == StateCaptured {
		return model.RawImage{}, false, fmt.Errorf("cannot pick in state %q", c.state)
	}

	img, ok, err := c.gallery.Pick(ctx)
	if err != nil {
		return model.RawImage{}, false, fmt.Errorf("pick from gallery: %w", err)
	}
	if !ok {
		slog.Debug("gallery pick cancelled")
		return model.RawImage{}, false, nil
	}

	c.state = StateCaptured
	return img, true, nil
}
