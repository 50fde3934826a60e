package retrieval

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/perbu/careeradvisor/pkg/embedder"
	"github.com/perbu/careeradvisor/pkg/knowledge"
)

// Build embeds every question of base in one batch and returns the data
// aligned by index.
func Build(ctx context.Context, base knowledge.Base, emb embedder.Embedder) (*EmbeddingData, error) {
	if base.Len() == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInconsistentIndex)
	}

	embeddings, err := emb.EmbedBatch(ctx, base.Questions())
	if err != nil {
		return nil, fmt.Errorf("embedding knowledge base: %w", err)
	}

	data := &EmbeddingData{
		Items:      base,
		Embeddings: embeddings,
		ModelInfo:  emb.ModelInfo(),
	}
	if len(embeddings) > 0 {
		data.Dimension = len(embeddings[0])
	}

	// Validate the invariants before handing the data out.
	if _, err := LoadIndex(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Matches reports whether d was built from exactly the questions of base
// with the model described by modelInfo.
func (d *EmbeddingData) Matches(base knowledge.Base, modelInfo string) bool {
	if d.ModelInfo != modelInfo || len(d.Items) != base.Len() {
		return false
	}
	return slices.Equal(d.Items, []knowledge.Item(base))
}

// SaveIndex writes data to w in gob format.
func SaveIndex(w io.Writer, data *EmbeddingData) error {
	return gob.NewEncoder(w).Encode(data)
}

// LoadIndexData reads gob-encoded embedding data from r.
func LoadIndexData(r io.Reader) (*EmbeddingData, error) {
	var data EmbeddingData
	if err := gob.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	return &data, nil
}

// SaveIndexFile writes data to path atomically through a temporary file.
func SaveIndexFile(path string, data *EmbeddingData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}

	if err := SaveIndex(file, data); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(path+".tmp", path)
}

// LoadIndexFile reads embedding data from path.
func LoadIndexFile(path string) (*EmbeddingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadIndexData(file)
}

// LoadOrBuild returns an index for base. A precomputed index at indexPath is
// used when it was built from the same questions and model; otherwise all
// questions are embedded now. An empty indexPath always builds.
func LoadOrBuild(ctx context.Context, base knowledge.Base, emb embedder.Embedder, indexPath string, logger *zap.Logger) (*Index, error) {
	if indexPath != "" {
		data, err := LoadIndexFile(indexPath)
		switch {
		case err == nil && data.Matches(base, emb.ModelInfo()):
			logger.Info("using precomputed index",
				zap.String("path", indexPath),
				zap.Int("items", len(data.Items)),
				zap.String("model", data.ModelInfo))
			return LoadIndex(data)
		case err == nil:
			logger.Warn("precomputed index does not match knowledge base or model, rebuilding",
				zap.String("path", indexPath),
				zap.String("index_model", data.ModelInfo),
				zap.String("model", emb.ModelInfo()))
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no precomputed index", zap.String("path", indexPath))
		default:
			logger.Warn("cannot read precomputed index, rebuilding", zap.String("path", indexPath), zap.Error(err))
		}
	}

	data, err := Build(ctx, base, emb)
	if err != nil {
		return nil, err
	}
	logger.Info("embedded knowledge base",
		zap.Int("items", len(data.Items)),
		zap.Int("dimension", data.Dimension),
		zap.String("model", data.ModelInfo))
	return LoadIndex(data)
}
