package videoService

import (
	"ExpressionAPI/internal/api/video"
	"ExpressionAPI/pkg/download"
	"ExpressionAPI/pkg/expression"
	"ExpressionAPI/pkg/facemesh"
	"ExpressionAPI/pkg/s3"
	"ExpressionAPI/pkg/tmpstore"
	"ExpressionAPI/pkg/utils"
	"ExpressionAPI/pkg/visualize"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"mime/multipart"
)

type IVideoService interface {
	ClassifyExpression(ctx context.Context, image *multipart.FileHeader) (*video.ExpressionResponse, error)
	ProcessUpload(ctx context.Context, file *multipart.FileHeader, opts video.ProcessOptions) (*video.ProcessResponse, error)
	ProcessURL(ctx context.Context, rawURL string, opts video.ProcessOptions) (*video.ProcessResponse, error)
	ProcessURLMiddleFrame(ctx context.Context, rawURL string) (*video.MiddleFrameResponse, error)
	DetectAttention(ctx context.Context, image *multipart.FileHeader) (*video.AttentionResponse, error)
	AnalyzeFrame(ctx context.Context, image []byte) (*video.StreamResponse, error)
}

type videoService struct {
	log        *logrus.Logger
	detector   facemesh.Detector
	classifier expression.Classifier
	fetcher    download.IFetcher
	store      tmpstore.IStore
	visualizer visualize.IWriter
	mirror     s3.ItfS3
	utils      utils.IUtils
}

// NewVideoService wires the pipeline components. mirror may be nil, in which
// case visualizations stay local only.
func NewVideoService(
	log *logrus.Logger,
	detector facemesh.Detector,
	classifier expression.Classifier,
	fetcher download.IFetcher,
	store tmpstore.IStore,
	visualizer visualize.IWriter,
	mirror s3.ItfS3,
	utils utils.IUtils,
) IVideoService {
	return &videoService{
		log:        log,
		detector:   detector,
		classifier: classifier,
		fetcher:    fetcher,
		store:      store,
		visualizer: visualizer,
		mirror:     mirror,
		utils:      utils,
	}
}
