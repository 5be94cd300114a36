package exam

import (
	"context"
	"fmt"
	"log/slog"

	"mcqmark/internal/answerkey"
	"mcqmark/internal/capture"
	"mcqmark/internal/model"
)

// Normalizer produces a canonical 4:3 image from a raw capture.
type Normalizer interface {
	Normalize(raw model.RawImage) model.NormalizedImage
}

// Grader submits a normalized image and answer key to the grading service.
type Grader interface {
	Submit(ctx context.Context, img model.NormalizedImage, questions int, key answerkey.Key) (model.GradedResult, error)
}

// ResultStore persists graded results. The store is injected so tests can
// substitute an in-memory implementation.
type ResultStore interface {
	Save(result model.GradedResult) (model.StoredExamResult, error)
}

// Pipeline runs one capture cycle end to end: acquire -> normalize -> submit
// -> persist. The stages are strictly sequential; normalization always
// completes before submission begins, and a result is persisted only after a
// successful grading response.
type Pipeline struct {
	controller *capture.Controller
	normalizer Normalizer
	grader     Grader
	store      ResultStore
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(controller *capture.Controller, normalizer Normalizer, grader Grader, store ResultStore) *Pipeline {
	return &Pipeline{
		controller: controller,
		normalizer: normalizer,
		grader:     grader,
		store:      store,
	}
}

// GradeFromGallery runs a cycle with a user-selected image. A cancelled pick
// is a normal outcome: it returns ok=false with no error and discards the
// cycle's state.
func (p *Pipeline) GradeFromGallery(ctx context.Context, questions int, letters string) (model.StoredExamResult, bool, error) {
	key, err := answerkey.Encode(letters, questions)
	if err != nil {
		return model.StoredExamResult{}, false, err
	}

	raw, ok, err := p.controller.PickFromGallery(ctx)
	if err != nil {
		return model.StoredExamResult{}, false, err
	}
	if !ok {
		p.controller.Reset()
		return model.StoredExamResult{}, false, nil
	}

	rec, err := p.run(ctx, raw, questions, key)
	if err != nil {
		return model.StoredExamResult{}, false, err
	}
	return rec, true, nil
}

// GradeFromCamera runs a cycle with a fresh camera capture, requesting
// permission first when needed.
func (p *Pipeline) GradeFromCamera(ctx context.Context, questions int, letters string) (model.StoredExamResult, error) {
	key, err := answerkey.Encode(letters, questions)
	if err != nil {
		return model.StoredExamResult{}, err
	}

	if err := p.controller.RequestCameraAccess(ctx); err != nil {
		return model.StoredExamResult{}, err
	}
	raw, err := p.controller.CaptureFromCamera(ctx)
	if err != nil {
		return model.StoredExamResult{}, err
	}

	return p.run(ctx, raw, questions, key)
}

func (p *Pipeline) run(ctx context.Context, raw model.RawImage, questions int, key answerkey.Key) (model.StoredExamResult, error) {
	// Hand the captured image to the grading stage; the controller is done
	// with this cycle either way.
	defer p.controller.Reset()

	normalized := p.normalizer.Normalize(raw)
	defer func() {
		if err := normalized.Release(); err != nil {
			slog.Warn("release normalized image", "path", normalized.Path, "error", err)
		}
	}()

	graded, err := p.grader.Submit(ctx, normalized, questions, key)
	if err != nil {
		return model.StoredExamResult{}, err
	}

	rec, err := p.store.Save(graded)
	if err != nil {
		return model.StoredExamResult{}, fmt.Errorf("persist result: %w", err)
	}

	slog.Info("exam graded",
		"id", rec.ID,
		"score", rec.Score,
		"total", rec.Total,
		"percentage", rec.Percentage,
		"grade", rec.Grade,
	)
	return rec, nil
}
