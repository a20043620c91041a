package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"glowfit/ai"
	"glowfit/models"
	"glowfit/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(in.Body)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[aws.ToString(in.Key)] = buf.Bytes()
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type faceCounter struct{ faces int }

func (f faceCounter) DetectFaces(context.Context, *rekognition.DetectFacesInput, ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	out := &rekognition.DetectFacesOutput{}
	for i := 0; i < f.faces; i++ {
		out.FaceDetails = append(out.FaceDetails, rektypes.FaceDetail{Confidence: aws.Float32(99)})
	}
	return out, nil
}

func (faceCounter) DetectLabels(context.Context, *rekognition.DetectLabelsInput, ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error) {
	return &rekognition.DetectLabelsOutput{}, nil
}

func photo(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

var skinTone = color.RGBA{R: 200, G: 150, B: 120, A: 255}

func newAnalysisService(t *testing.T, f *fixture, gen Generator, faces int) (*AnalysisService, *memS3) {
	store := &memS3{}
	storage := utils.NewStorage(store, "glowfit", "us-east-1", "https://cdn.glowfit.app")
	return NewAnalysisService(f.db, gen, storage, utils.NewVision(faceCounter{faces: faces}), f.game, 1<<20, true), store
}

func TestAnalyzeWithAI(t *testing.T) {
	f := newFixture(t)
	gen := &stubGen{text: "```json\n{\"skin_type\": \"oily\", \"score\": 72, \"concerns\": [\"shine\"]}\n```"}
	svc, store := newAnalysisService(t, f, gen, 1)
	ctx := context.Background()
	u := createUser(t, f.db, "skin@example.com")

	res, err := svc.Analyze(ctx, u.ID, models.AnalysisSkin, AnalyzeInput{
		ImageBase64: photo(t, skinTone),
		Hints:       map[string]string{"concerns": "acne"},
	})
	require.NoError(t, err)
	a := res.Analysis
	assert.False(t, a.UsedFallback)
	assert.Equal(t, "gemini", a.Provider)
	assert.Equal(t, "stub-model", a.ModelName)
	assert.Equal(t, 72.0, a.Score)
	assert.Contains(t, a.ImageURL, "https://cdn.glowfit.app/analyses/skin/")
	assert.Equal(t, 1, store.count())

	var result map[string]any
	require.NoError(t, json.Unmarshal(a.Result, &result))
	assert.Equal(t, "oily", result["skin_type"])
	var metrics map[string]any
	require.NoError(t, json.Unmarshal(a.Metrics, &metrics))
	assert.Equal(t, "ok", metrics["exposure"])

	assert.Equal(t, "image/png", gen.last.MIMEType)
	assert.True(t, gen.last.JSON)
	assert.Contains(t, gen.last.Prompt, "concerns: acne")
	require.NotNil(t, res.Award)
	assert.Equal(t, []string{"first_analysis"}, res.Award.NewBadges)

	got, err := svc.Get(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, u.ID, a.ID))
	assert.Zero(t, store.count(), "photo removed with the analysis")
	_, err = svc.Get(ctx, u.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeFallsBackWhenAIDown(t *testing.T) {
	f := newFixture(t)
	gen := &stubGen{err: errors.Join(ai.ErrAllProvidersFailed, errors.New("gemini: 503"))}
	svc, _ := newAnalysisService(t, f, gen, 1)
	u := createUser(t, f.db, "pc@example.com")

	res, err := svc.Analyze(context.Background(), u.ID, models.AnalysisPersonalColor, AnalyzeInput{ImageBase64: photo(t, skinTone)})
	require.NoError(t, err)
	a := res.Analysis
	assert.True(t, a.UsedFallback)
	assert.Equal(t, "heuristic", a.Provider)

	var result map[string]any
	require.NoError(t, json.Unmarshal(a.Result, &result))
	assert.Equal(t, true, result["estimated"])
	assert.Contains(t, []any{"spring", "summer", "autumn", "winter"}, result["season"])

	// a reply without JSON also falls back
	gen.err, gen.text = nil, "I cannot help with that."
	res, err = svc.Analyze(context.Background(), u.ID, models.AnalysisHair, AnalyzeInput{ImageBase64: photo(t, skinTone)})
	require.NoError(t, err)
	assert.True(t, res.Analysis.UsedFallback)
}

func TestAnalyzeRemovesPhotoWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	svc, store := newAnalysisService(t, f, &stubGen{text: `{"score": 70}`}, 1)
	u := createUser(t, f.db, "orphan@example.com")

	errDisk := errors.New("disk full")
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_analysis", func(db *gorm.DB) {
		if _, ok := db.Statement.Model.(*models.Analysis); ok {
			_ = db.AddError(errDisk)
		}
	}))

	_, err := svc.Analyze(context.Background(), u.ID, models.AnalysisSkin, AnalyzeInput{ImageBase64: photo(t, skinTone)})
	require.ErrorIs(t, err, errDisk)
	assert.Zero(t, store.count(), "uploaded photo must not outlive the failed insert")
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	gen := &stubGen{text: `{"score": 50}`}
	ctx := context.Background()
	u := createUser(t, f.db, "bad@example.com")

	svc, _ := newAnalysisService(t, f, gen, 1)
	_, err := svc.Analyze(ctx, u.ID, "tattoo", AnalyzeInput{ImageBase64: photo(t, skinTone)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Analyze(ctx, u.ID, models.AnalysisSkin, AnalyzeInput{ImageBase64: photo(t, color.RGBA{R: 10, G: 10, B: 10, A: 255})})
	assert.ErrorIs(t, err, ErrBadExposure)
	_, err = svc.Analyze(ctx, u.ID, models.AnalysisSkin, AnalyzeInput{ImageBase64: photo(t, color.RGBA{R: 250, G: 250, B: 250, A: 255})})
	assert.ErrorIs(t, err, ErrBadExposure)

	_, err = svc.Analyze(ctx, u.ID, models.AnalysisSkin, AnalyzeInput{ImageBase64: "data:image/png;base64,@@@"})
	assert.Error(t, err)

	crowd, _ := newAnalysisService(t, f, gen, 2)
	_, err = crowd.Analyze(ctx, u.ID, models.AnalysisMakeup, AnalyzeInput{ImageBase64: photo(t, skinTone)})
	assert.ErrorIs(t, err, ErrValidation)
	// body shots are not face-gated
	_, err = crowd.Analyze(ctx, u.ID, models.AnalysisBody, AnalyzeInput{ImageBase64: photo(t, skinTone)})
	assert.NoError(t, err)
	assert.Equal(t, 1, gen.calls, "rejected photos never reach the model")
}

func TestAnalysisHistoryAndLatest(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAnalysisService(t, f, &stubGen{text: `{"score": 60}`}, 1)
	ctx := context.Background()
	u := createUser(t, f.db, "hist@example.com")

	var ids []uint
	for _, kind := range []string{models.AnalysisSkin, models.AnalysisHair, models.AnalysisSkin} {
		res, err := svc.Analyze(ctx, u.ID, kind, AnalyzeInput{ImageBase64: photo(t, skinTone)})
		require.NoError(t, err)
		ids = append(ids, res.Analysis.ID)
	}

	all, err := svc.History(ctx, u.ID, HistoryQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	skin, err := svc.History(ctx, u.ID, HistoryQuery{Kind: models.AnalysisSkin, Limit: 1})
	require.NoError(t, err)
	require.Len(t, skin, 1)
	assert.Equal(t, ids[2], skin[0].ID)

	_, err = svc.History(ctx, u.ID, HistoryQuery{Kind: "nails"})
	assert.ErrorIs(t, err, ErrValidation)

	latest, err := svc.Latest(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
	assert.Equal(t, ids[2], latest[models.AnalysisSkin].ID)
	assert.Equal(t, ids[1], latest[models.AnalysisHair].ID)
	assert.Nil(t, latest[models.AnalysisBody])
}
