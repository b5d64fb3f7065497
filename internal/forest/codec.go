package forest

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidModel = errors.New("invalid model artifact")

// Save writes the forest as a zstd-compressed gob stream.
func Save(w io.Writer, f *Forest) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("error creating zstd writer: %w", err)
	}

	if err := gob.NewEncoder(enc).Encode(f); err != nil {
		enc.Close()
		return fmt.Errorf("error encoding model: %w", err)
	}
	return enc.Close()
}

// Load reads a forest written by Save.
func Load(r io.Reader) (*Forest, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("error creating zstd reader: %w", err)
	}
	defer dec.Close()

	var f Forest
	if err := gob.NewDecoder(dec).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	if f.NFeatures < 1 || len(f.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(f.NFeatures); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidModel, i, err)
		}
	}
	return &f, nil
}

// validate checks that every split reads an existing feature and that its
// children come later in Nodes, so Predict cannot index out of range or loop.
func (t Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return errors.New("no nodes")
	}
	for i, n := range t.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, nFeatures)
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has children %d and %d outside (%d, %d)", i, n.Left, n.Right, i, len(t.Nodes))
		}
	}
	return nil
}
