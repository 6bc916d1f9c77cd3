package capture

import (
	"image"
	"strings"
)

// Detection is one decoded identifier in a frame together with its screen
// geometry. The polygon is passed through untouched for overlay rendering.
type Detection struct {
	Payload string
	Polygon []image.Point
}

// DistinctPayloads returns the set of distinct non-empty payloads in order of
// first appearance. Payloads are trimmed; repeated detections of the same
// payload (multiple codes of one label in frame) collapse to one.
func DistinctPayloads(detections []Detection) []string {
	seen := make(map[string]struct{}, len(detections))
	var payloads []string
	for _, det := range detections {
		payload := strings.TrimSpace(det.Payload)
		if payload == "" {
			continue
		}
		if _, ok := seen[payload]; ok {
			continue
		}
		seen[payload] = struct{}{}
		payloads = append(payloads, payload)
	}
	return payloads
}
