package daemon

import (
	"context"
	"image"
	"time"

	"gocv.io/x/gocv"

	"packwatch/internal/capture/camera"
	"packwatch/internal/classify"
	"packwatch/internal/config"
	"packwatch/internal/logging"
	"packwatch/internal/render"
)

// consecutive read failures tolerated before the loop gives up on the camera.
const maxReadFailures = 120

func openCamera(cfg *config.Config) (*camera.Camera, error) {
	return camera.Open(cfg)
}

// loop is the frame pipeline: read, decode, classify, gate, orchestrate,
// annotate, record. It runs until the context is canceled or the camera
// stops delivering frames, then finalizes any open recording.
func (d *Daemon) loop(ctx context.Context, cam *camera.Camera) {
	defer close(d.done)
	defer cam.Close()
	defer func() {
		// Teardown must finalize evidence even when the loop exits on
		// error, so the link step uses a fresh context. The IPC server
		// is still answering status calls at this point, so the
		// controller mutation stays under the daemon lock.
		d.mu.Lock()
		err := d.ctrl.ForceStop(context.Background())
		d.mu.Unlock()
		if err != nil {
			d.logger.Warn("finalize recording on shutdown failed", logging.Error(err))
		}
	}()

	var window *gocv.Window
	if d.cfg.Camera.Display {
		window = gocv.NewWindow("Packwatch")
		defer window.Close()
	}

	img := gocv.NewMat()
	defer img.Close()

	readFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !cam.Read(&img) || img.Empty() {
			readFailures++
			if readFailures >= maxReadFailures {
				d.logger.Error("camera stopped delivering frames",
					logging.String("device", d.cfg.Camera.Device),
					logging.String(logging.FieldEventType, "camera_lost"),
					logging.String(logging.FieldImpact, "scan station halted"),
					logging.String(logging.FieldErrorHint, "check the camera cable and restart packwatch run"))
				return
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		readFailures = 0

		now := time.Now()
		dets := cam.Decode(img)

		d.mu.Lock()
		res, err := d.classifier.Classify(dets, now)
		if err != nil {
			// Unclassified tick: downstream sees no valid identifier
			// and the next sighting retries the lookup.
			res = classify.Result{Detections: dets}
			d.logger.Warn("classification failed", logging.Error(err))
		}
		gateID := res.Primary
		if res.Conflict {
			gateID = ""
		}
		st := d.gate.Observe(gateID, now)
		report, tickErr := d.ctrl.Tick(ctx, res, st, now)
		d.mu.Unlock()

		if tickErr != nil {
			d.logger.Warn("tick completed with errors", logging.Error(tickErr))
		}

		directives, header := render.ForTick(res, st, render.Indicator{
			Active:  report.Recording,
			Invoice: report.RecordingInvoice,
		})
		annotate(&img, directives, header)

		if report.Recording {
			if err := d.recorder.WriteFrame(img); err != nil {
				d.logger.Warn("evidence frame write failed",
					logging.Error(err),
					logging.String(logging.FieldInvoice, report.RecordingInvoice))
			}
		}

		if window != nil {
			window.IMShow(img)
			if window.WaitKey(1) == 'q' {
				d.logger.Info("display window requested shutdown")
				return
			}
		}
	}
}

// annotate draws the tick's overlay onto the frame: the status banner plus a
// box and label around each detected code.
func annotate(img *gocv.Mat, directives []render.Directive, header render.Header) {
	gocv.PutText(img, header.Text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, header.Color, 2)

	for _, dir := range directives {
		if len(dir.Polygon) >= 2 {
			pts := gocv.NewPointsVectorFromPoints([][]image.Point{dir.Polygon})
			gocv.Polylines(img, pts, true, dir.Color, 2)
			pts.Close()
		}
		if dir.Text != "" {
			anchor := labelAnchor(dir.Polygon, img.Rows())
			gocv.PutText(img, dir.Text, anchor, gocv.FontHersheySimplex, 0.6, dir.Color, 2)
		}
	}
}

// labelAnchor places the label just above the code's bounding polygon,
// clamped inside the frame.
func labelAnchor(polygon []image.Point, rows int) image.Point {
	if len(polygon) == 0 {
		return image.Pt(10, 60)
	}
	minX, minY := polygon[0].X, polygon[0].Y
	for _, p := range polygon[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
	}
	y := minY - 10
	if y < 20 {
		y = 20
	}
	if y > rows-4 && rows > 4 {
		y = rows - 4
	}
	return image.Pt(minX, y)
}
