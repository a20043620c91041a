package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type RekognitionAPI interface {
	DetectFaces(ctx context.Context, in *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

var ErrVisionDisabled = errors.New("image recognition not configured")

type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Vision wraps Rekognition for face gating and food label detection.
type Vision struct {
	client RekognitionAPI
}

func NewVision(client RekognitionAPI) *Vision { return &Vision{client: client} }

func (v *Vision) Enabled() bool { return v != nil && v.client != nil }

// CountFaces returns how many faces Rekognition sees with at least 90% confidence.
func (v *Vision) CountFaces(ctx context.Context, img []byte) (int, error) {
	if !v.Enabled() {
		return 0, ErrVisionDisabled
	}
	out, err := v.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{Bytes: img},
	})
	if err != nil {
		return 0, fmt.Errorf("detect faces: %w", err)
	}
	n := 0
	for _, f := range out.FaceDetails {
		if aws.ToFloat32(f.Confidence) >= 90 {
			n++
		}
	}
	return n, nil
}

// Labels returns up to max labels above 75% confidence, best first.
func (v *Vision) Labels(ctx context.Context, img []byte, max int32) ([]Label, error) {
	if !v.Enabled() {
		return nil, ErrVisionDisabled
	}
	out, err := v.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: img},
		MaxLabels:     aws.Int32(max),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}
	labels := make([]Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, Label{Name: aws.ToString(l.Name), Confidence: float64(aws.ToFloat32(l.Confidence))})
	}
	return labels, nil
}
