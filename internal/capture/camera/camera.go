package camera

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"packwatch/internal/capture"
	"packwatch/internal/config"
)

// Camera wraps the capture device and the QR decoder behind one handle.
type Camera struct {
	cap *gocv.VideoCapture
	qr  gocv.QRCodeDetector
}

// Open connects to the configured capture device and applies its geometry.
func Open(cfg *config.Config) (*Camera, error) {
	cap, err := gocv.OpenVideoCapture(cfg.Camera.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", cfg.Camera.Device, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Camera.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Camera.Height))
	cap.Set(gocv.VideoCaptureFPS, cfg.Camera.FPS)

	return &Camera{cap: cap, qr: gocv.NewQRCodeDetector()}, nil
}

// Read grabs the next frame into img. It reports false when the device
// produced no frame.
func (c *Camera) Read(img *gocv.Mat) bool {
	return c.cap.Read(img)
}

// Decode finds and decodes every QR code in the frame, returning one
// detection per code with its screen polygon.
func (c *Camera) Decode(img gocv.Mat) []capture.Detection {
	var decoded []string
	points := gocv.NewMat()
	defer points.Close()
	var codes []gocv.Mat
	defer func() {
		for i := range codes {
			_ = codes[i].Close()
		}
	}()

	if !c.qr.DetectAndDecodeMulti(img, &decoded, &points, &codes) {
		return nil
	}

	detections := make([]capture.Detection, 0, len(decoded))
	for i, payload := range decoded {
		detections = append(detections, capture.Detection{
			Payload: payload,
			Polygon: polygonAt(points, i),
		})
	}
	return detections
}

// polygonAt extracts the i-th code's four corner points from the detector's
// Nx4 two-channel float matrix.
func polygonAt(points gocv.Mat, i int) []image.Point {
	if points.Empty() || i >= points.Rows() {
		return nil
	}
	polygon := make([]image.Point, 0, 4)
	for j := 0; j < points.Cols(); j++ {
		vec := points.GetVecfAt(i, j)
		if len(vec) < 2 {
			continue
		}
		polygon = append(polygon, image.Point{X: int(vec[0]), Y: int(vec[1])})
	}
	return polygon
}

// Close releases the device and detector resources.
func (c *Camera) Close() error {
	if err := c.qr.Close(); err != nil {
		_ = c.cap.Close()
		return err
	}
	return c.cap.Close()
}
