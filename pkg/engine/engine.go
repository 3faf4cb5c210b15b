// Package engine owns a single UCI chess-engine subprocess and drives it through the UCI
// protocol to produce scored candidate moves for a position. It is the lowest layer of the
// search stack: it knows nothing about variation trees or confidence, only how to ask an
// external engine to evaluate a position and how to recover from the subprocess dying.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"

	"github.com/Hbos123/confidence-search-engine/pkg/board"
	"github.com/Hbos123/confidence-search-engine/pkg/board/fen"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 1, 0)

// State is the lifecycle state of an engine subprocess.
type State int

const (
	Spawning State = iota
	Ready
	Busy
	Dead
)

func (s State) String() string {
	switch s {
	case Spawning:
		return "spawning"
	case Ready:
		return "ready"
	case Busy:
		return "busy"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// ErrorKind classifies an EngineError.
type ErrorKind int

const (
	Crashed ErrorKind = iota
	Protocol
)

func (k ErrorKind) String() string {
	if k == Protocol {
		return "protocol"
	}
	return "crashed"
}

// EngineError reports a failure of the underlying UCI subprocess. The queue in package erq
// uses Kind to decide whether to respawn.
type EngineError struct {
	Kind ErrorKind
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error (%v): %v", e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// ScoredLine is one candidate move together with the engine's evaluation of the position it
// leads to, expressed from the perspective of the side that played Move.
type ScoredLine struct {
	Move       board.Move
	Centipawns int32 // meaningless if MateIn != 0.
	MateIn     int   // positive: mover delivers mate in MateIn moves (UCI "score mate"). Negative: mover gets mated.
	PV         []board.Move
	Depth      int
}

func (s ScoredLine) String() string {
	if s.MateIn != 0 {
		return fmt.Sprintf("%v mate=%v depth=%v", s.Move, s.MateIn, s.Depth)
	}
	return fmt.Sprintf("%v cp=%v depth=%v", s.Move, s.Centipawns, s.Depth)
}

// Budget bounds a single analysis call, either by search depth or wall-clock time. Exactly
// one of the two fields is expected to be set.
type Budget struct {
	Depth    int
	MoveTime time.Duration
}

func (b Budget) String() string {
	if b.MoveTime > 0 {
		return fmt.Sprintf("movetime=%v", b.MoveTime)
	}
	return fmt.Sprintf("depth=%v", b.Depth)
}

// Handle owns one UCI chess-engine subprocess. It serializes its own requests via mu, but
// that alone does not provide fairness or backpressure across callers: package erq provides
// the single FIFO worker that all production callers should go through.
type Handle struct {
	path string
	name string

	mu    sync.Mutex
	state State
	eng   *uci.Engine
}

// Option configures a Handle at construction.
type Option func(*Handle)

// New spawns a UCI engine subprocess at path and brings it to the Ready state, or returns an
// EngineError if the subprocess fails to start (Kind Crashed) or to answer the UCI handshake
// (Kind Protocol).
func New(ctx context.Context, path string, opts ...Option) (*Handle, error) {
	h := &Handle{path: path, state: Spawning}
	for _, opt := range opts {
		opt(h)
	}

	eng, err := uci.New(path)
	if err != nil {
		h.state = Dead
		return nil, &EngineError{Kind: Crashed, Err: err}
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		_ = eng.Close()
		h.state = Dead
		return nil, &EngineError{Kind: Protocol, Err: err}
	}

	h.eng = eng
	h.name = idName(eng)
	h.state = Ready

	logw.Infof(ctx, "Spawned engine %v: %v %v", h.name, path, version)
	return h, nil
}

func idName(eng *uci.Engine) string {
	if n, ok := eng.ID()["name"]; ok {
		return n
	}
	return "uci-engine"
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Ping issues a no-op isready roundtrip, used by the queue in package erq to detect a dead
// subprocess between requests without disturbing any in-flight search state.
func (h *Handle) Ping(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Dead {
		return &EngineError{Kind: Crashed, Err: fmt.Errorf("engine is dead")}
	}
	if err := h.eng.Run(uci.CmdIsReady); err != nil {
		h.state = Dead
		return &EngineError{Kind: Crashed, Err: err}
	}
	return nil
}

// Close terminates the engine subprocess. Idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Dead {
		return nil
	}
	h.state = Dead
	return h.eng.Close()
}

// Analyse returns up to multipv scored lines for pos, best-first from the perspective of the
// side to move in pos, bounded by budget. On subprocess failure the Handle transitions to
// Dead and the returned error is an *EngineError with Kind Crashed; the caller (erq.Queue) is
// expected to discard the Handle and spawn a replacement.
//
// Each line comes from a full, unrestricted search over every candidate move the previous
// lines haven't already claimed: the first call lets the engine search the whole legal move
// list and report its own best move, the second restricts SearchMoves to everything except
// that first move and again takes the engine's own best among the rest, and so on. The engine
// always chooses; nothing here pre-ranks or pre-filters candidates before asking it.
func (h *Handle) Analyse(ctx context.Context, pos *board.Position, budget Budget, multipv int) ([]ScoredLine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Dead {
		return nil, &EngineError{Kind: Crashed, Err: fmt.Errorf("engine is dead")}
	}
	h.state = Busy
	defer func() {
		if h.state != Dead {
			h.state = Ready
		}
	}()

	cpos, err := toChessPosition(pos)
	if err != nil {
		return nil, err
	}

	candidates := pos.LegalMoves()
	if len(candidates) == 0 {
		return nil, nil
	}
	if multipv < 1 {
		multipv = 1
	}
	if multipv > len(candidates) {
		multipv = len(candidates)
	}

	chosen := make(map[board.Move]bool, multipv)
	lines := make([]ScoredLine, 0, multipv)
	for len(lines) < multipv {
		remaining := make([]*chess.Move, 0, len(candidates))
		for _, m := range candidates {
			if chosen[m] {
				continue
			}
			cm, err := toChessMove(cpos, m)
			if err != nil {
				return nil, err
			}
			remaining = append(remaining, cm)
		}
		if len(remaining) == 0 {
			break
		}

		goCmd := uci.CmdGo{Depth: budget.Depth, MoveTime: budget.MoveTime, SearchMoves: remaining}
		if err := h.eng.Run(uci.CmdPosition{Position: cpos}, goCmd); err != nil {
			h.state = Dead
			return nil, &EngineError{Kind: Crashed, Err: err}
		}

		res := h.eng.SearchResults()
		if res.BestMove == nil {
			break
		}
		best, ok := pos.Find(strings.ToLower(res.BestMove.String()))
		if !ok {
			break
		}

		// cp/mate are reported relative to the side to move in cpos, which never changes
		// across iterations and is exactly the mover these lines are scored for: no sign
		// flip needed.
		lines = append(lines, ScoredLine{
			Move:       best,
			Centipawns: int32(res.Info.Score.CP),
			MateIn:     res.Info.Score.Mate,
			PV:         decodePV(pos, res.Info.PV),
			Depth:      res.Info.Depth,
		})
		chosen[best] = true
	}

	sortByRank(lines)
	logw.Debugf(ctx, "Analysed %v: %v lines, budget=%v", pos, len(lines), budget)
	return lines, nil
}

func toChessPosition(pos *board.Position) (*chess.Position, error) {
	opt, err := chess.FEN(fen.Encode(pos))
	if err != nil {
		return nil, fmt.Errorf("invalid position for engine: %w", err)
	}
	game := chess.NewGame(opt)
	return game.Position(), nil
}

func toChessMove(cpos *chess.Position, m board.Move) (*chess.Move, error) {
	uci := strings.ToLower(m.UCI())
	for _, cm := range cpos.ValidMoves() {
		if strings.ToLower(cm.String()) == uci {
			return cm, nil
		}
	}
	return nil, fmt.Errorf("move %v not found among engine's valid moves", m)
}

// decodePV walks a raw UCI principal variation, rooted at pos, back into board.Move values by
// replaying it move by move, so each step stays legal-move consistent with our own move
// representation instead of trusting the engine's move objects directly. pv[0] is the line's
// own first move (the engine's chosen best move for this iteration).
func decodePV(pos *board.Position, pv []*chess.Move) []board.Move {
	out := make([]board.Move, 0, len(pv))
	cur := *pos
	for _, cm := range pv {
		m, ok := cur.Find(strings.ToLower(cm.String()))
		if !ok {
			break
		}
		out = append(out, m)
		cur = cur.Apply(m)
	}
	return out
}

// rank orders ScoredLines best-first for the mover: forced mates dominate centipawn scores,
// and faster mates (for) or slower mates (against) rank better.
func rank(l ScoredLine) int32 {
	switch {
	case l.MateIn > 0:
		return 2_000_000 - int32(l.MateIn)
	case l.MateIn < 0:
		return -2_000_000 - int32(l.MateIn)
	default:
		return l.Centipawns
	}
}

func sortByRank(lines []ScoredLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return rank(lines[i]) > rank(lines[j])
	})
}
