package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hbos123/confidence-search-engine/pkg/board/fen"
	"github.com/Hbos123/confidence-search-engine/pkg/engine"
)

// stubEnginePath writes a fixed-script UCI engine to a temp file and returns its path. It
// answers bestmove=d2d4 (cp=40) whenever d2d4 is among the searchmoves it was given, and
// bestmove=e2e4 (cp=10) otherwise -- so it behaves like a real engine restricted by
// "go searchmoves", never offering a move outside the list it was asked to consider. d2d4
// is neither a capture (so ranks behind captures under the static captures-first candidate
// ordering) nor first among legal moves in board order, so a test against it can tell
// whether Analyse is trusting the engine's own choice or a local heuristic.
func stubEnginePath(t *testing.T) string {
	t.Helper()

	const script = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    uci)
      echo "id name stubengine"
      echo "uciok"
      ;;
    isready)
      echo "readyok"
      ;;
    "go "*)
      case "$line" in
        *d2d4*)
          echo "info depth 8 score cp 40 pv d2d4 d7d5"
          echo "bestmove d2d4"
          ;;
        *)
          echo "info depth 8 score cp 10 pv e2e4 e7e5"
          echo "bestmove e2e4"
          ;;
      esac
      ;;
    quit)
      exit 0
      ;;
  esac
done
`
	path := filepath.Join(t.TempDir(), "stubengine.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestAnalyseTrustsEnginesOwnBestMove(t *testing.T) {
	ctx := context.Background()
	path := stubEnginePath(t)

	h, err := engine.New(ctx, path)
	require.NoError(t, err)
	defer h.Close()

	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	lines, err := h.Analyse(ctx, pos, engine.Budget{Depth: 8}, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	// d2d4 is neither a capture (so ranks behind captures under the static
	// captures-first candidate ordering) nor first among legal moves in board order;
	// Analyse must return it anyway because the engine's own bestmove says so.
	assert.Equal(t, "d2d4", lines[0].Move.UCI())
	assert.EqualValues(t, 40, lines[0].Centipawns)
	assert.Equal(t, 8, lines[0].Depth)
	require.NotEmpty(t, lines[0].PV)
	assert.Equal(t, "d2d4", lines[0].PV[0].UCI())
}

func TestAnalyseExcludesEarlierLinesOnSubsequentRounds(t *testing.T) {
	ctx := context.Background()
	path := stubEnginePath(t)

	h, err := engine.New(ctx, path)
	require.NoError(t, err)
	defer h.Close()

	pos, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	// The stub only ever answers d2d4 when d2d4 is among the moves it was told to
	// search. With multipv=2, Analyse's second round must therefore have excluded d2d4
	// from the restricted move list, forcing the stub's fallback answer (e2e4) --
	// otherwise both rounds would report the same move.
	lines, err := h.Analyse(ctx, pos, engine.Budget{Depth: 8}, 2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.NotEqual(t, lines[0].Move, lines[1].Move, "the same move must not be reported twice across multipv rounds")
}

func TestAnalyseReturnsNoLinesAtCheckmate(t *testing.T) {
	ctx := context.Background()
	path := stubEnginePath(t)

	h, err := engine.New(ctx, path)
	require.NoError(t, err)
	defer h.Close()

	// Fool's mate: White to move, already checkmated, no legal moves.
	pos, err := fen.Decode("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.NoError(t, err)

	lines, err := h.Analyse(ctx, pos, engine.Budget{Depth: 8}, 3)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
