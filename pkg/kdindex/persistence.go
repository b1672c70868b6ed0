package kdindex

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/sphere-kdindex/pkg/models"
)

// snapshot is the serializable form of a built index: just enough to
// rebuild it with New. This is a host/CLI convenience for the cmd/
// tools (save once, query many times across process runs) and is not
// part of the core's read path; the core itself never persists.
type snapshot struct {
	Points       []models.Point
	NStop        int
	SphereRadius float64
}

// SaveToFile writes idx's source points and build parameters to
// filename using gob encoding, so a later LoadFromFile can rebuild an
// equivalent index without keeping the original points around.
func (idx *KDIndex) SaveToFile(filename string, nStop int) error {
	var points []models.Point
	for _, n := range idx.nodes {
		if n.isLeaf {
			points = append(points, n.points...)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("kdindex: create %s: %w", filename, err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	if err := enc.Encode(snapshot{Points: points, NStop: nStop, SphereRadius: idx.sphereRadius}); err != nil {
		return fmt.Errorf("kdindex: encode %s: %w", filename, err)
	}
	return nil
}

// LoadFromFile rebuilds a KDIndex from a file written by SaveToFile.
func LoadFromFile(filename string) (*KDIndex, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("kdindex: open %s: %w", filename, err)
	}
	defer f.Close()

	var snap snapshot
	dec := gob.NewDecoder(f)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("kdindex: decode %s: %w", filename, err)
	}

	return New(snap.Points, snap.NStop, snap.SphereRadius)
}
