package services

import (
	"context"
	"fmt"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"go.uber.org/zap"
)

type PhotoStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

// RekognitionAPI is the part of the Rekognition client the labeler needs.
type RekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, opts ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

type RekognitionLabeler struct {
	client RekognitionAPI
}

func NewRekognitionLabeler(client RekognitionAPI) *RekognitionLabeler {
	return &RekognitionLabeler{client: client}
}

// DetectLabels returns the top labels of an image.
func (r *RekognitionLabeler) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, aws.ToString(l.Name))
	}
	return labels, nil
}

// PhotoService uploads meal photos and labels them.
type PhotoService struct {
	storage PhotoStorage
	labels  LabelDetector
	log     *zap.Logger
	now     func() time.Time
}

func NewPhotoService(storage PhotoStorage, labels LabelDetector, log *zap.Logger) *PhotoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PhotoService{storage: storage, labels: labels, log: log, now: time.Now}
}

type StoredPhoto struct {
	URL    string
	Labels []string
}

// Store uploads a data URI for a meal log. Labelling is best effort; a
// Rekognition failure leaves the labels empty.
func (s *PhotoService) Store(ctx context.Context, orgID, mealLogID uint, dataURI string) (*StoredPhoto, error) {
	img, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return nil, InvalidArgument("image", "%v", err)
	}
	key := fmt.Sprintf("meal-photos/%d/%d-%d%s", orgID, mealLogID, s.now().UnixNano(), img.Ext)
	url, err := s.storage.Upload(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return nil, Dependency("upload meal photo", err)
	}

	out := &StoredPhoto{URL: url, Labels: []string{}}
	if s.labels == nil {
		return out, nil
	}
	labels, err := s.labels.DetectLabels(ctx, img.Data)
	if err != nil {
		s.log.Warn("meal photo labelling failed", zap.Uint("meal_log_id", mealLogID), zap.Error(err))
		return out, nil
	}
	out.Labels = labels
	return out, nil
}
