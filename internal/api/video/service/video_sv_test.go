package videoService

import (
	"ExpressionAPI/internal/api/video"
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/attention"
	contextPkg "ExpressionAPI/pkg/context"
	"ExpressionAPI/pkg/download"
	"ExpressionAPI/pkg/expression"
	"ExpressionAPI/pkg/facemesh"
	"ExpressionAPI/pkg/response"
	"ExpressionAPI/pkg/tmpstore"
	"ExpressionAPI/pkg/utils"
	"ExpressionAPI/pkg/visualize"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gocv.io/x/gocv"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

type fakeMirror struct {
	uploaded []string
	err      error
}

func (m *fakeMirror) UploadFile(path string, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploaded = append(m.uploaded, path)
	return "https://bucket.example.com/" + filepath.Base(path), nil
}

type fixture struct {
	service IVideoService
	tempDir string
	outDir  string
	logs    *test.Hook
}

func newFixture(t *testing.T, detector facemesh.Detector, mirror *fakeMirror) fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hook := test.NewLocal(logger)

	tempDir := t.TempDir()
	store, err := tmpstore.NewInDir(tempDir, logger)
	if err != nil {
		t.Fatalf("temp store: %v", err)
	}

	outDir := t.TempDir()

	svc := &videoService{
		log:        logger,
		detector:   detector,
		classifier: expression.NewFake(nil, nil),
		fetcher:    download.New(store),
		store:      store,
		visualizer: visualize.NewWriter(outDir, visualize.StylePolyline),
		utils:      utils.New(),
	}
	if mirror != nil {
		svc.mirror = mirror
	}

	return fixture{service: svc, tempDir: tempDir, outDir: outDir, logs: hook}
}

// frontalFace is a 468 point mesh whose cheeks sit symmetrically around the nose.
func frontalFace() entity.LandmarkSet {
	set := make(entity.LandmarkSet, 468)
	for i := range set {
		set[i] = entity.Landmark{Index: i, X: 0.5, Y: 0.5}
	}
	set[attention.RightCheekIndex].X = 0.45
	set[attention.LeftCheekIndex].X = 0.55
	return set
}

func writeClip(t *testing.T, n int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.avi")
	writer, err := gocv.VideoWriterFile(path, "MJPG", 10, 64, 48, true)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	for i := 0; i < n; i++ {
		img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 100, 100, 0), 48, 64, gocv.MatTypeCV8UC3)
		if err := writer.Write(img); err != nil {
			img.Close()
			t.Fatalf("write frame %d: %v", i, err)
		}
		img.Close()
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return path
}

func serveFile(t *testing.T, path string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var respErr *response.Error
	if !errors.As(err, &respErr) {
		t.Fatalf("expected a response error, got %v", err)
	}
	return respErr.Code
}

func TestProcessURLCapsReportedFrames(t *testing.T) {
	f := newFixture(t, facemesh.NewFake(frontalFace()), nil)
	srv := serveFile(t, writeClip(t, 8))

	res, err := f.service.ProcessURL(context.Background(), srv.URL+"/clip.avi", video.ProcessOptions{SampleRate: 1})
	if err != nil {
		t.Fatalf("ProcessURL: %v", err)
	}

	if res.TotalFrames != 8 || res.FramesWithFaces != 8 {
		t.Fatalf("expected 8 frames with faces, got total=%d with_faces=%d", res.TotalFrames, res.FramesWithFaces)
	}
	if len(res.Results) != video.MaxReportedFrames {
		t.Fatalf("expected %d reported frames, got %d", video.MaxReportedFrames, len(res.Results))
	}
	for i, r := range res.Results {
		if r.FrameNumber != i {
			t.Errorf("result %d has frame_number %d", i, r.FrameNumber)
		}
	}
	assertEmptyDir(t, f.tempDir)
}

func TestProcessURLCountsOnlyFramesWithFaces(t *testing.T) {
	f := newFixture(t, facemesh.NewFake(), nil)
	srv := serveFile(t, writeClip(t, 4))

	res, err := f.service.ProcessURL(context.Background(), srv.URL+"/clip.avi", video.ProcessOptions{MaxFrames: 2, SampleRate: 1})
	if err != nil {
		t.Fatalf("ProcessURL: %v", err)
	}
	if res.TotalFrames != 2 || res.FramesWithFaces != 0 || len(res.Results) != 0 {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestProcessURLUnreachable(t *testing.T) {
	f := newFixture(t, facemesh.NewFake(frontalFace()), nil)

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/clip.mp4"
	srv.Close()

	_, err := f.service.ProcessURL(context.Background(), url, video.ProcessOptions{SampleRate: 1})
	if err == nil {
		t.Fatal("expected an error")
	}
	if code := statusOf(t, err); code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if !strings.HasPrefix(err.Error(), "Error processing video: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	assertEmptyDir(t, f.tempDir)
}

func TestProcessURLNotAVideo(t *testing.T) {
	f := newFixture(t, facemesh.NewFake(frontalFace()), nil)

	junk := filepath.Join(t.TempDir(), "junk.mp4")
	if err := os.WriteFile(junk, []byte("definitely not a video"), 0o600); err != nil {
		t.Fatal(err)
	}
	srv := serveFile(t, junk)

	_, err := f.service.ProcessURL(context.Background(), srv.URL+"/junk.mp4", video.ProcessOptions{SampleRate: 1})
	if !errors.Is(err, video.ErrNoFramesExtracted) {
		t.Fatalf("expected ErrNoFramesExtracted, got %v", err)
	}
	assertEmptyDir(t, f.tempDir)
}

func TestProcessURLMiddleFrame(t *testing.T) {
	mirror := &fakeMirror{}
	f := newFixture(t, facemesh.NewFake(frontalFace()), mirror)
	srv := serveFile(t, writeClip(t, 5))

	res, err := f.service.ProcessURLMiddleFrame(context.Background(), srv.URL+"/clip.avi")
	if err != nil {
		t.Fatalf("ProcessURLMiddleFrame: %v", err)
	}

	if len(res.Landmarks) != 1 {
		t.Fatalf("expected one face, got %d", len(res.Landmarks))
	}
	if filepath.Dir(res.VisualizationPath) != f.outDir {
		t.Fatalf("visualization written to %s, want dir %s", res.VisualizationPath, f.outDir)
	}
	if _, err := os.Stat(res.VisualizationPath); err != nil {
		t.Fatalf("visualization missing: %v", err)
	}
	if len(mirror.uploaded) != 1 || res.VisualizationURL == "" {
		t.Fatalf("expected visualization to be mirrored, got %+v", res)
	}
	assertEmptyDir(t, f.tempDir)
}

func TestProcessURLMiddleFrameMirrorFailureIsNotFatal(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("access denied")}
	f := newFixture(t, facemesh.NewFake(frontalFace()), mirror)
	srv := serveFile(t, writeClip(t, 3))

	res, err := f.service.ProcessURLMiddleFrame(context.Background(), srv.URL+"/clip.avi")
	if err != nil {
		t.Fatalf("ProcessURLMiddleFrame: %v", err)
	}
	if res.VisualizationURL != "" {
		t.Fatalf("expected no visualization url, got %q", res.VisualizationURL)
	}
}

func TestProcessURLMiddleFrameNoFace(t *testing.T) {
	f := newFixture(t, facemesh.NewFailing(facemesh.ErrNotConnected), nil)
	srv := serveFile(t, writeClip(t, 3))

	_, err := f.service.ProcessURLMiddleFrame(context.Background(), srv.URL+"/clip.avi")
	if !errors.Is(err, video.ErrNoFaceInMiddleFrame) {
		t.Fatalf("expected ErrNoFaceInMiddleFrame, got %v", err)
	}
	assertEmptyDir(t, f.tempDir)
}

func TestAnalyzeFrame(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 50, 50, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	t.Run("face", func(t *testing.T) {
		f := newFixture(t, facemesh.NewFake(frontalFace()), nil)
		res, err := f.service.AnalyzeFrame(context.Background(), data)
		if err != nil {
			t.Fatalf("AnalyzeFrame: %v", err)
		}
		if res.FaceDirection != attention.LookingAtScreen || len(res.Landmarks) != 1 {
			t.Fatalf("unexpected response %+v", res.FaceDirection)
		}
	})

	t.Run("no face", func(t *testing.T) {
		f := newFixture(t, facemesh.NewFake(), nil)
		res, err := f.service.AnalyzeFrame(context.Background(), data)
		if err != nil {
			t.Fatalf("AnalyzeFrame: %v", err)
		}
		if res.FaceDirection != attention.Unknown || res.Landmarks == nil || len(res.Landmarks) != 0 {
			t.Fatalf("unexpected response %+v", res)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		f := newFixture(t, facemesh.NewFake(frontalFace()), nil)
		_, err := f.service.AnalyzeFrame(context.Background(), []byte("nope"))
		if !errors.Is(err, video.ErrUndecodableImage) {
			t.Fatalf("expected ErrUndecodableImage, got %v", err)
		}
	})
}

func TestDetectorFailureIsLoggedWithRequestID(t *testing.T) {
	f := newFixture(t, facemesh.NewFailing(facemesh.ErrNotConnected), nil)

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 50, 50, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	defer buf.Close()

	ctx := contextPkg.WithRequestID(context.Background(), "req-42")
	res, err := f.service.AnalyzeFrame(ctx, buf.GetBytes())
	if err != nil {
		t.Fatalf("AnalyzeFrame: %v", err)
	}
	if len(res.Landmarks) != 0 {
		t.Fatalf("expected no landmarks, got %d", len(res.Landmarks))
	}

	entry := f.logs.LastEntry()
	if entry == nil {
		t.Fatal("expected the detector failure on the service logger")
	}
	if entry.Level != logrus.WarnLevel || entry.Data["request_id"] != "req-42" {
		t.Fatalf("unexpected log entry %v %+v", entry.Level, entry.Data)
	}
}

func TestDetectorNoFaceIsNotLogged(t *testing.T) {
	f := newFixture(t, facemesh.NewFake(), nil)

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 50, 50, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	defer buf.Close()

	if _, err := f.service.AnalyzeFrame(context.Background(), buf.GetBytes()); err != nil {
		t.Fatalf("AnalyzeFrame: %v", err)
	}
	if n := len(f.logs.AllEntries()); n != 0 {
		t.Fatalf("expected no log entries for a frame without a face, got %d", n)
	}
}
