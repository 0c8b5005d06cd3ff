package main

import (
	"ExpressionAPI/internal/entity"
	"ExpressionAPI/pkg/attention"
	"ExpressionAPI/pkg/facemesh"
	"ExpressionAPI/pkg/log"
	videoPkg "ExpressionAPI/pkg/video"
	"ExpressionAPI/pkg/visualize"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	InputPath  string
	MaxFrames  int
	SampleRate int
	Middle     bool
	Visualize  bool
}

type frameReport struct {
	FrameNumber   int                  `json:"frame_number"`
	FaceDirection attention.Direction  `json:"face_direction"`
	IsAttentive   bool                 `json:"is_attentive"`
	Landmarks     []entity.LandmarkSet `json:"landmarks"`
}

var extractOpts extractOptions

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run landmark detection on a local video and print JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(extractOpts.InputPath); err != nil {
			return fmt.Errorf("input video: %w", err)
		}

		detector := facemesh.New(log.NewLogger())
		defer detector.Close()

		var (
			reports []frameReport
			err     error
		)
		if extractOpts.Middle {
			reports, err = extractMiddle(cmd, detector, extractOpts)
		} else {
			reports, err = extractSampled(cmd, detector, extractOpts)
		}
		if err != nil {
			return err
		}

		out, err := jsoniter.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOpts.InputPath, "input", "i", "", "Path to the video file")
	extractCmd.Flags().IntVar(&extractOpts.MaxFrames, "max-frames", 30, "Stop after this many sampled frames (0 for all)")
	extractCmd.Flags().IntVar(&extractOpts.SampleRate, "sample-rate", 10, "Keep every Nth frame")
	extractCmd.Flags().BoolVar(&extractOpts.Middle, "middle", false, "Only analyze the middle frame")
	extractCmd.Flags().BoolVar(&extractOpts.Visualize, "visualize", false, "Write a landmark visualization of the middle frame")
	extractCmd.MarkFlagRequired("input")
}

func extractSampled(cmd *cobra.Command, detector facemesh.Detector, opts extractOptions) ([]frameReport, error) {
	frames := videoPkg.ExtractFrames(opts.InputPath, opts.MaxFrames, opts.SampleRate)
	defer videoPkg.CloseAll(frames)

	if len(frames) == 0 {
		return nil, fmt.Errorf("could not extract frames from %s", opts.InputPath)
	}

	bar := progressbar.NewOptions(len(frames),
		progressbar.OptionSetDescription("Detecting landmarks"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	reports := make([]frameReport, 0, len(frames))
	for i, frame := range frames {
		if err := cmd.Context().Err(); err != nil {
			return nil, err
		}

		sets := facemesh.DetectOrEmpty(cmd.Context(), detector, frame)
		reports = append(reports, newFrameReport(i, sets))
		bar.Add(1)
	}
	bar.Finish()

	return reports, nil
}

func extractMiddle(cmd *cobra.Command, detector facemesh.Detector, opts extractOptions) ([]frameReport, error) {
	frame, ok := videoPkg.ExtractMiddleFrame(opts.InputPath)
	if !ok {
		return nil, fmt.Errorf("could not extract middle frame from %s", opts.InputPath)
	}
	defer frame.Close()

	sets := facemesh.DetectOrEmpty(cmd.Context(), detector, frame)
	report := newFrameReport(videoPkg.MiddleIndex(videoPkg.FrameCount(opts.InputPath)), sets)

	if opts.Visualize && len(sets) > 0 {
		path, err := visualize.New().Save(frame, sets)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "visualization written to %s\n", path)
	}

	return []frameReport{report}, nil
}

func newFrameReport(frameNumber int, sets []entity.LandmarkSet) frameReport {
	report := frameReport{
		FrameNumber:   frameNumber,
		FaceDirection: attention.Unknown,
		Landmarks:     sets,
	}
	if report.Landmarks == nil {
		report.Landmarks = []entity.LandmarkSet{}
	}
	if len(sets) > 0 {
		report.FaceDirection = attention.DetermineFaceAngle(sets[0])
		report.IsAttentive = attention.IsAttentive(report.FaceDirection)
	}
	return report
}
