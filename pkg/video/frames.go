// Package video decodes frames out of video containers with OpenCV.
package video

import (
	"gocv.io/x/gocv"
)

// Keep reports whether the frame at the zero-based position survives
// sampling at the given rate. Rates below 1 keep every frame.
func Keep(position, sampleRate int) bool {
	if sampleRate < 1 {
		sampleRate = 1
	}
	return position%sampleRate == 0
}

// MiddleIndex is the frame a container of total frames is seeked to.
func MiddleIndex(total int) int {
	return total / 2
}

// ExtractFrames decodes the container at path in temporal order and returns
// every sampleRate-th frame, stopping after maxFrames kept frames when
// maxFrames is positive. A container that cannot be opened yields no frames.
// The caller owns the returned frames and must close them.
func ExtractFrames(path string, maxFrames int, sampleRate int) []gocv.Mat {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return nil
	}

	var frames []gocv.Mat
	position := 0

	for {
		img := gocv.NewMat()
		if ok := capture.Read(&img); !ok || img.Empty() {
			img.Close()
			break
		}

		if Keep(position, sampleRate) {
			frames = append(frames, img)
		} else {
			img.Close()
		}
		position++

		if maxFrames > 0 && len(frames) >= maxFrames {
			break
		}
	}

	return frames
}

// ExtractMiddleFrame seeks to the middle of the container and decodes the
// single frame found there.
func ExtractMiddleFrame(path string) (gocv.Mat, bool) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return gocv.Mat{}, false
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return gocv.Mat{}, false
	}

	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	if total <= 0 {
		return gocv.Mat{}, false
	}

	capture.Set(gocv.VideoCapturePosFrames, float64(MiddleIndex(total)))

	img := gocv.NewMat()
	if ok := capture.Read(&img); !ok || img.Empty() {
		img.Close()
		return gocv.Mat{}, false
	}

	return img, true
}

// FrameCount reads the container's frame count metadata, 0 when unknown.
func FrameCount(path string) int {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return 0
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return 0
	}

	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	if total < 0 {
		return 0
	}
	return total
}

func CloseAll(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}
