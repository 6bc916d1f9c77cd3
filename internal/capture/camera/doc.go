// Package camera adapts a V4L2 capture device and OpenCV's QR detector to the
// capture contract. It is the only consumer-facing seam that touches gocv on
// the input side; the classification pipeline sees plain detections.
package camera
