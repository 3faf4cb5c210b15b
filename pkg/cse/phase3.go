package cse

import "github.com/Hbos123/confidence-search-engine/pkg/tree"

// freezeAndRecolour makes one pass over the whole tree: any node whose transferred
// confidence has reached the target is frozen (green), any node that has been extended but
// remains below target keeps its red-triangle flag, and spine nodes below target with no
// branches are left as red circles -- candidates for a future call to extend further.
func (s *Search) freezeAndRecolour() {
	for id := 0; id < s.store.Len(); id++ {
		nid := tree.NodeId(id)
		n := s.store.Node(nid)

		if tc, ok := n.TransferredConfidence(); ok && tc >= s.target {
			s.store.Freeze(nid)
			continue
		}
		if n.HasBranches() && n.Confidence() < s.target {
			s.store.MarkInsufficientConfidence(nid)
		}
	}
}
