// Package capture defines the frame decode contract between the camera
// adapter and the classification pipeline.
//
// The concrete camera and QR decoding live in the camera subpackage so the
// core pipeline compiles and tests without OpenCV.
package capture
