// Package visualize renders face mesh landmarks onto frames and stores the
// result as JPEG files.
package visualize

import (
	"ExpressionAPI/internal/entity"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

type Style string

const (
	// StylePolyline joins landmarks that are adjacent in index order.
	StylePolyline Style = "polyline"
	// StyleContours draws the canonical face mesh contours.
	StyleContours Style = "contours"
)

const DefaultDir = "./output"

var green = color.RGBA{R: 0, G: 255, B: 0, A: 0}

type IWriter interface {
	Save(frame gocv.Mat, sets []entity.LandmarkSet) (string, error)
}

type writer struct {
	dir   string
	style Style
	now   func() time.Time
}

func New() IWriter {
	dir := os.Getenv("VISUALIZATION_DIR")
	if dir == "" {
		dir = DefaultDir
	}
	return NewWriter(dir, ParseStyle(os.Getenv("VISUALIZATION_STYLE")))
}

func NewWriter(dir string, style Style) IWriter {
	return &writer{dir: dir, style: style, now: time.Now}
}

func ParseStyle(raw string) Style {
	if Style(raw) == StyleContours {
		return StyleContours
	}
	return StylePolyline
}

// FileName is landmarks_<unix seconds>.jpg. Two saves in the same second
// share a name and the later one wins.
func FileName(t time.Time) string {
	return fmt.Sprintf("landmarks_%d.jpg", t.Unix())
}

func (w *writer) Save(frame gocv.Mat, sets []entity.LandmarkSet) (string, error) {
	if frame.Empty() {
		return "", errors.New("cannot visualize an empty frame")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	vis := frame.Clone()
	defer vis.Close()

	Draw(&vis, sets, w.style)

	path := filepath.Join(w.dir, FileName(w.now()))
	if ok := gocv.IMWrite(path, vis); !ok {
		return "", fmt.Errorf("failed to write visualization to %s", path)
	}

	return path, nil
}

// Draw paints every landmark as a filled dot and connects them in the
// requested style.
func Draw(img *gocv.Mat, sets []entity.LandmarkSet, style Style) {
	w, h := img.Cols(), img.Rows()

	for _, set := range sets {
		points := make([]image.Point, len(set))
		byIndex := make(map[int]image.Point, len(set))

		for i, lm := range set {
			pt := image.Pt(int(lm.X*float64(w)), int(lm.Y*float64(h)))
			gocv.Circle(img, pt, 1, green, -1)
			points[i] = pt
			byIndex[lm.Index] = pt
		}

		switch style {
		case StyleContours:
			for _, edge := range ContourEdges() {
				from, okFrom := byIndex[edge[0]]
				to, okTo := byIndex[edge[1]]
				if okFrom && okTo {
					gocv.Line(img, from, to, green, 1)
				}
			}
		default:
			for i := 0; i+1 < len(points); i++ {
				gocv.Line(img, points[i], points[i+1], green, 1)
			}
		}
	}
}
