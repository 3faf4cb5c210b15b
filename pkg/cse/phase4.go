package cse

import (
	"context"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/tree"
	"github.com/Hbos123/confidence-search-engine/pkg/tta"
)

// attachTags fills in every node's theme/tag annotation once the tree is final. The
// orchestrator never consults tags while deciding what to extend -- engine scores alone drive
// selection -- so this runs last, over exactly the nodes it already intends to return, and its
// failure never changes Reason: a tagging error is swallowed rather than surfacing as
// EngineUnavailable, since TTA is CPU-only and has nothing to do with the engine queue.
func (s *Search) attachTags(ctx context.Context) {
	n := s.store.Len()
	positions := make([]*board.Position, n)
	for id := 0; id < n; id++ {
		positions[id] = s.store.Node(tree.NodeId(id)).Position()
	}

	analyses, err := tta.AnnotateTree(ctx, positions)
	if err != nil {
		return
	}
	for id, a := range analyses {
		s.store.SetTags(tree.NodeId(id), a)
	}
}
