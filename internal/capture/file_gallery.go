package capture

import (
	"context"
	"fmt"
	"os"

	"mcqmark/internal/model"
)

// FileGallery is a Gallery backed by a single file path, used by the CLI in
// place of an interactive picker. An empty path behaves as a cancellation.
type FileGallery struct {
	Path string
}

func (g *FileGallery) Pick(_ context.Context) (model.RawImage, bool, error) {
	if g.Path == "" {
		return model.RawImage{}, false, nil
	}
	info, err := os.Stat(g.Path)
	if err != nil {
		return model.RawImage{}, false, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return model.RawImage{}, false, fmt.Errorf("%s is a directory, not an image", g.Path)
	}
	return model.RawImage{Path: g.Path}, true, nil
}
