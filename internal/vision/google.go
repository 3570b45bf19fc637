package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"stockroom/internal/config"
	"stockroom/internal/models"

	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"
)

var ErrNoCredentials = errors.New("no valid Google Cloud credentials found")

var annotateFeatures = []*visionapi.Feature{
	{Type: "LABEL_DETECTION"},
	{Type: "TEXT_DETECTION"},
	{Type: "OBJECT_LOCALIZATION"},
}

// GoogleAnnotator runs label, text and object detection through the Cloud
// Vision REST API.
type GoogleAnnotator struct {
	svc *visionapi.Service
}

// NewGoogleAnnotator prefers inline credentials JSON and falls back to a
// credentials file.
func NewGoogleAnnotator(ctx context.Context, cfg config.GoogleConfig) (*GoogleAnnotator, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(cfg.ApplicationCredentials))
	default:
		return nil, ErrNoCredentials
	}

	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision client: %w", err)
	}
	return &GoogleAnnotator{svc: svc}, nil
}

func (a *GoogleAnnotator) Annotate(ctx context.Context, image []byte) (*models.VisionResult, error) {
	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image:    &visionapi.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: annotateFeatures,
		}},
	}

	resp, err := a.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, errors.New("vision API returned no results")
	}

	return resultFromResponse(resp.Responses[0])
}

func resultFromResponse(r *visionapi.AnnotateImageResponse) (*models.VisionResult, error) {
	if r.Error != nil && r.Error.Message != "" {
		return nil, fmt.Errorf("vision API error: %s", r.Error.Message)
	}

	result := &models.VisionResult{Labels: []string{}, Texts: []string{}, Objects: []string{}}
	for _, label := range r.LabelAnnotations {
		result.Labels = append(result.Labels, label.Description)
	}
	for _, text := range r.TextAnnotations {
		result.Texts = append(result.Texts, text.Description)
	}
	for _, obj := range r.LocalizedObjectAnnotations {
		result.Objects = append(result.Objects, obj.Name)
	}
	return result, nil
}
