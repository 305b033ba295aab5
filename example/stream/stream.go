package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"time"

	"github.com/camwatch/go-sorttrack/render"
	"github.com/camwatch/go-sorttrack/tracker"
	"github.com/spf13/viper"
	"gocv.io/x/gocv"
)

var (
	// FPS is the number of FPS to simulate
	FPS         = int64(30)
	FPSinterval = time.Duration(float64(time.Second) / float64(FPS))
)

// hogScore is the detection confidence reported for HOG hits. The HOG
// people detector provides no per-box confidence
const hogScore = float32(1.0)

// ResultFrame is a struct to wrap the gocv byte buffer and error result
type ResultFrame struct {
	Buf *gocv.NativeByteBuffer
	Err error
}

// Demo defines the struct for running the person tracking demo
type Demo struct {
	// vidBuffer buffers the video frames into memory
	vidBuffer []gocv.Mat
	// hog is the person detector
	hog gocv.HOGDescriptor
	// trackerCfg holds the tracker parameters loaded from config
	trackerCfg tracker.Config
	// trailSize is the number of trail points to keep per track
	trailSize int
}

// NewDemo returns an instance of Demo, a streaming HTTP server showing
// video with person detection and tracking
func NewDemo(vidFile string, cfg tracker.Config, trailSize int) (*Demo, error) {

	d := &Demo{
		trackerCfg: cfg,
		trailSize:  trailSize,
	}

	err := d.bufferVideo(vidFile)

	if err != nil {
		return nil, fmt.Errorf("error buffering video: %w", err)
	}

	// create HOG person detector
	d.hog = gocv.NewHOGDescriptor()

	err = d.hog.SetSVMDetector(gocv.HOGDefaultPeopleDetector())

	if err != nil {
		return nil, fmt.Errorf("error setting SVM detector: %w", err)
	}

	return d, nil
}

// Close frees the demo resources
func (d *Demo) Close() {

	d.hog.Close()

	for _, img := range d.vidBuffer {
		img.Close()
	}
}

// bufferVideo reads in the video frames and saves them to a buffer
func (d *Demo) bufferVideo(vidFile string) error {

	// open handle to read frames of video file
	video, err := gocv.VideoCaptureFile(vidFile)

	if err != nil {
		return err
	}

	defer video.Close()

	d.vidBuffer = make([]gocv.Mat, 0)

	for {
		img := gocv.NewMat()

		// read the next frame from the video
		if ok := video.Read(&img); !ok {
			// reached last video frame
			break
		}

		// Check if the frame is empty
		if img.Empty() {
			continue
		}

		// push frame onto buffer
		d.vidBuffer = append(d.vidBuffer, img)
	}

	if len(d.vidBuffer) == 0 {
		return fmt.Errorf("no frames read from video file %s", vidFile)
	}

	return nil
}

// DetectPeople runs the HOG person detector on the frame and converts the
// results into tracker detections
func (d *Demo) DetectPeople(img gocv.Mat) []tracker.Detection {

	rects := d.hog.DetectMultiScaleWithParams(img, 0,
		image.Pt(8, 8), image.Pt(16, 16), 1.05, 2.0, false)

	dets := make([]tracker.Detection, 0, len(rects))

	for _, r := range rects {
		dets = append(dets, tracker.NewDetection(
			tracker.NewRect(float32(r.Min.X), float32(r.Min.Y),
				float32(r.Dx()), float32(r.Dy())),
			hogScore, "person",
		))
	}

	return dets
}

// Stream is the HTTP handler function used to stream video frames to browser
func (d *Demo) Stream(w http.ResponseWriter, r *http.Request) {

	log.Printf("New client connection established\n")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	// each client stream owns its own tracker instance and id space, the
	// tracker is a single writer resource and must not be shared between
	// streams
	tk, err := tracker.NewTracker(d.trackerCfg)

	if err != nil {
		log.Printf("Error creating tracker: %v", err)
		http.Error(w, "tracker configuration error", http.StatusInternalServerError)
		return
	}

	trail := tracker.NewTrail(d.trailSize)

	// pointer to position in video buffer
	frameNum := -1

	// used for calculating FPS
	frameCount := 0
	startTime := time.Now()
	fps := float64(0)

	ticker := time.NewTicker(FPSinterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected\n")
			break loop

		// simulate reading 30FPS web camera
		case <-ticker.C:

			// increment pointer to next image in the video buffer
			frameNum++
			if frameNum > len(d.vidBuffer)-1 {
				frameNum = 0
			}

			// frames are processed synchronously as the per-frame tracker
			// cycle must run to completion before the next frame starts
			buf := d.ProcessFrame(d.vidBuffer[frameNum], tk, trail, fps)

			if buf.Err != nil {
				log.Printf("Error occurred during ProcessFrame: %v", buf.Err)

			} else {
				// Write the image to the response writer
				w.Write([]byte("--frame\r\n"))
				w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
				w.Write(buf.Buf.GetBytes())
				w.Write([]byte("\r\n"))

				// Flush the buffer
				flusher, ok := w.(http.Flusher)
				if ok {
					flusher.Flush()
				}

				buf.Buf.Close()
			}

			// calculate FPS
			frameCount++
			elapsed := time.Since(startTime).Seconds()

			if elapsed >= 1.0 {
				fps = float64(frameCount) / elapsed
				frameCount = 0
				startTime = time.Now()
			}
		}
	}
}

// ProcessFrame runs person detection and tracking on a video frame,
// annotates a copy of the frame and returns the result encoded as a JPG file
func (d *Demo) ProcessFrame(img gocv.Mat, tk *tracker.Tracker,
	trail *tracker.Trail, fps float64) ResultFrame {

	resImg := gocv.NewMat()
	defer resImg.Close()

	// run person detection on frame
	dets := d.DetectPeople(img)

	// run the per-frame tracking cycle
	trackedObjects := tk.Update(dets)

	for _, obj := range trackedObjects {
		trail.Add(obj)
	}

	// copy the source image and annotate the copy
	img.CopyTo(&resImg)

	render.TrackerBoxes(&resImg, trackedObjects, render.DefaultFont(), 2)
	render.Trail(&resImg, trackedObjects, trail, render.DefaultTrailStyle())

	gocv.PutText(&resImg,
		fmt.Sprintf("%.1f FPS, %d people tracked", fps, len(trackedObjects)),
		image.Pt(4, 14), gocv.FontHersheySimplex, 0.5, render.White, 1)

	// Encode the image to JPEG format
	buf, err := gocv.IMEncode(".jpg", resImg)

	return ResultFrame{
		Buf: buf,
		Err: err,
	}
}

func main() {

	// read in cli flags
	vidFile := flag.String("v", "people-walking.mp4", "Video file to run tracking on")
	configFile := flag.String("c", "", "Optional YAML config file with tracker parameters")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")

	flag.Parse()

	// tracker parameter defaults, overridden by the config file when given
	viper.SetDefault("tracker.max_age", 30)
	viper.SetDefault("tracker.min_hits", 3)
	viper.SetDefault("tracker.iou_threshold", 0.3)
	viper.SetDefault("trail.size", 90)

	if *configFile != "" {
		viper.SetConfigFile(*configFile)

		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	cfg := tracker.Config{
		MaxAge:       viper.GetInt("tracker.max_age"),
		MinHits:      viper.GetInt("tracker.min_hits"),
		IoUThreshold: float32(viper.GetFloat64("tracker.iou_threshold")),
	}

	demo, err := NewDemo(*vidFile, cfg, viper.GetInt("trail.size"))

	if err != nil {
		log.Fatalf("Error creating demo: %v", err)
	}

	defer demo.Close()

	log.Printf("Tracker parameters: max_age=%d, min_hits=%d, iou_threshold=%.2f",
		cfg.MaxAge, cfg.MinHits, cfg.IoUThreshold)

	http.HandleFunc("/stream", demo.Stream)

	log.Printf("Open browser and view video at http://%s/stream", *httpAddr)
	log.Fatal(http.ListenAndServe(*httpAddr, nil))
}
