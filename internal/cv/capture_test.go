package cv

import (
	"errors"
	"image"
	"testing"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// fakeBackend reports fixed displays and records capture requests
type fakeBackend struct {
	displays []image.Rectangle
	err      error
	requests []image.Rectangle
}

func (f *fakeBackend) NumActiveDisplays() int {
	return len(f.displays)
}

func (f *fakeBackend) GetDisplayBounds(index int) image.Rectangle {
	return f.displays[index]
}

func (f *fakeBackend) CaptureRect(rect image.Rectangle) (*image.RGBA, error) {
	f.requests = append(f.requests, rect)
	if f.err != nil {
		return nil, f.err
	}
	// real backends return buffers positioned at the requested rectangle
	return image.NewRGBA(rect), nil
}

func TestScreenCapturerVirtualDesktop(t *testing.T) {
	backend := &fakeBackend{displays: []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(-1280, 0, 0, 1024),
	}}
	sc := &ScreenCapturer{backend: backend}

	desktop, err := sc.VirtualDesktop()
	if err != nil {
		t.Fatalf("VirtualDesktop returned error: %v", err)
	}
	want := NewRect(-1280, 0, 3200, 1080)
	if desktop != want {
		t.Errorf("VirtualDesktop = %+v, want %+v", desktop, want)
	}

	img, region, err := sc.Capture(nil)
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if region != want {
		t.Errorf("captured region = %+v, want %+v", region, want)
	}
	if img.Bounds().Min != (image.Point{}) {
		t.Errorf("buffer origin = %v, want (0,0)", img.Bounds().Min)
	}
	if img.Bounds().Dx() != 3200 || img.Bounds().Dy() != 1080 {
		t.Errorf("buffer size = %v, want 3200x1080", img.Bounds().Size())
	}
}

func TestScreenCapturerRegion(t *testing.T) {
	backend := &fakeBackend{displays: []image.Rectangle{image.Rect(0, 0, 800, 600)}}
	sc := &ScreenCapturer{backend: backend}

	region := NewRect(-20, 40, 100, 50)
	img, got, err := sc.Capture(&region)
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if got != region {
		t.Errorf("region = %+v, want %+v", got, region)
	}
	if len(backend.requests) != 1 || backend.requests[0] != image.Rect(-20, 40, 80, 90) {
		t.Errorf("backend requests = %v", backend.requests)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 50) {
		t.Errorf("buffer bounds = %v", img.Bounds())
	}
}

func TestScreenCapturerErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		region  *Rect
		want    error
	}{
		{
			name:    "zero width region",
			backend: &fakeBackend{displays: []image.Rectangle{image.Rect(0, 0, 10, 10)}},
			region:  &Rect{Width: 0, Height: 5},
			want:    apperr.ErrOutOfRange,
		},
		{
			name:    "negative height region",
			backend: &fakeBackend{displays: []image.Rectangle{image.Rect(0, 0, 10, 10)}},
			region:  &Rect{Width: 5, Height: -1},
			want:    apperr.ErrOutOfRange,
		},
		{
			name:    "no displays",
			backend: &fakeBackend{},
			want:    apperr.ErrOperationFailed,
		},
		{
			name: "backend failure",
			backend: &fakeBackend{
				displays: []image.Rectangle{image.Rect(0, 0, 10, 10)},
				err:      errors.New("x11 unavailable"),
			},
			want: apperr.ErrOperationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &ScreenCapturer{backend: tt.backend}
			_, _, err := sc.Capture(tt.region)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStaticCapturer(t *testing.T) {
	frame := noisyImage(50, 40, 9)
	sc := NewStaticCapturer(frame, image.Point{X: -100, Y: 10})

	img, region, err := sc.Capture(nil)
	if err != nil {
		t.Fatalf("Capture(nil) error: %v", err)
	}
	if region != NewRect(-100, 10, 50, 40) {
		t.Errorf("full region = %+v", region)
	}
	if img == frame {
		t.Error("Capture(nil) returned the backing frame instead of a copy")
	}

	sub := NewRect(-90, 15, 10, 10)
	img, region, err = sc.Capture(&sub)
	if err != nil {
		t.Fatalf("Capture(sub) error: %v", err)
	}
	if region != sub {
		t.Errorf("region = %+v, want %+v", region, sub)
	}
	if img.RGBAAt(0, 0) != frame.RGBAAt(10, 5) {
		t.Errorf("crop origin pixel mismatch")
	}

	outside := NewRect(-120, 10, 30, 30)
	if _, _, err := sc.Capture(&outside); !errors.Is(err, apperr.ErrOperationFailed) {
		t.Errorf("outside capture err = %v, want operation failed", err)
	}
}
