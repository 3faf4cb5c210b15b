package tta

// TagId is a member of the closed, dot-namespaced tag catalogue. Every id begins with "tag."
// per the public contract; callers outside this package should treat TagId as opaque and
// compare by value, not by parsing the string.
type TagId string

const (
	TagOpenFileA TagId = "tag.files.a.open"
	TagOpenFileB TagId = "tag.files.b.open"
	TagOpenFileC TagId = "tag.files.c.open"
	TagOpenFileD TagId = "tag.files.d.open"
	TagOpenFileE TagId = "tag.files.e.open"
	TagOpenFileF TagId = "tag.files.f.open"
	TagOpenFileG TagId = "tag.files.g.open"
	TagOpenFileH TagId = "tag.files.h.open"

	TagOutpostKnight TagId = "tag.outposts.knight"
	TagOutpostBishop TagId = "tag.outposts.bishop"

	TagHoleKingZone TagId = "tag.holes.king_zone"

	TagCenterControl TagId = "tag.center.control"

	TagKingShieldThin    TagId = "tag.king.shield_thin"
	TagKingCenterExposed TagId = "tag.king.center_exposed"
	TagKingAttackersMany TagId = "tag.king.attackers_many"

	TagPawnPassed TagId = "tag.pawns.passed"
	TagPawnLever  TagId = "tag.pawns.lever"

	TagRookOpenFile TagId = "tag.rook.open_file"
	TagRookRank7    TagId = "tag.rook.rank7"

	TagBishopPair TagId = "tag.bishop.pair"

	TagTacticFork       TagId = "tag.tactic.fork"
	TagTacticPin        TagId = "tag.tactic.pin"
	TagTacticSkewer     TagId = "tag.tactic.skewer"
	TagTacticDiscovered TagId = "tag.tactic.discovered"
	TagTacticBackrank   TagId = "tag.tactic.backrank"

	TagPieceTrapped TagId = "tag.piece.trapped"
)

// openFileTags is indexed by board.File's own integer value (FileH=0 .. FileA=7), not
// alphabetic order, to match the package's file numbering directly.
var openFileTags = [8]TagId{TagOpenFileH, TagOpenFileG, TagOpenFileF, TagOpenFileE, TagOpenFileD, TagOpenFileC, TagOpenFileB, TagOpenFileA}
