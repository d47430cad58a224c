package geo

// Terrain data for the island map. The tokens are part of the persisted data
// format and must not change.

// BadWaterToken is the swamp sub-cell where thirst triples during the evening
// window after prolonged inactivity.
const BadWaterToken = "3g7"

// SpecialHerbToken is where the evening-window herb can be gathered.
const SpecialHerbToken = "3g7"

// PurifierHerbToken is where the seawater purifier herb grows, once per day.
const PurifierHerbToken = "2a2"

var seawaterTokens = map[string]struct{}{}

var seawaterList = []string{
	"1a1", "2a1", "3a1", "4a1", "1b1", "2b1",
	"3b1", "4b1", "1c1", "2c1", "3c1", "4c1", "1d1", "2d1", "3d1", "4d1",
	"1e1", "2e1", "1f1", "2f1", "3f1", "1g1", "2g1", "3g1", "4g1", "1h1",
	"2h1", "3h1", "4h1", "1i1", "2i1", "3i1", "4i1", "1j1", "2j1", "3j1",
	"4j1", "1a2", "3a2", "4a2", "1b2", "2b2", "3b2", "4b2", "1c2", "2c2",
	"4c2", "1g2", "2g2", "2h2", "1i2", "2i2", "1j2", "2j2", "3j2", "4j2",
	"1a3", "3a3", "4a3", "1j3", "2j3", "3j3", "4j3", "1a4", "4a4", "1j4", "2j4",
	"3j4", "4j4", "1a5", "4a5", "1j5", "2j5", "3j5", "4j5", "1a6", "2a6",
	"3a6", "4a6", "1j6", "2j6", "3j6", "4j6", "1a7", "2a7", "3a7", "4a7",
	"1j7", "2j7", "3j7", "4j7", "1a8", "2a8", "3a8", "4a8", "1j8", "2j8",
	"3j8", "4j8", "1a9", "2a9", "3a9", "4a9", "3b9", "1c9", "2c9", "3c9",
	"4c9", "4g9", "2j9", "3j9", "1a10", "2a10", "3a10", "4a10", "1b10",
	"2b10", "3b10", "4b10", "2e10", "3e10", "4e10", "1f10", "2f10", "3f10",
	"4f10", "1g10", "2g10", "3g10", "4g10", "1h10", "2h10", "3h10", "4h10",
	"3i10", "4i10", "2j10", "3j10", "4j10",
}

var freshWaterTokens = map[string]struct{}{
	"3c3": {}, "4c3": {}, "1c4": {}, "2c4": {}, "3d4": {}, "4d4": {},
	"1d5": {}, "2d5": {}, "3d5": {}, "4d5": {}, "1d6": {}, "2d6": {}, "1e6": {},
}

// JungleSquares are the main squares a beast pair can be assigned from.
var JungleSquares = []string{"c6", "h4", "e8", "i8"}

// HerbLocationPool is the fixed candidate pool the daily herb spawn shuffles.
var HerbLocationPool = []string{
	"1e2", "1h2", "2c3", "4e3", "2g3", "2i3", "1b5", "4b6", "1c6", "4e6", "4f4", "2h4",
	"2h6", "2i6", "4i6", "2c7", "2e7", "1c8", "2b9", "2d8", "4f8", "2g8", "2i8", "2d9",
	"1c10", "4h9", "3i9", "2c5", "2b4", "4f2",
}

func init() {
	for _, t := range seawaterList {
		seawaterTokens[t] = struct{}{}
	}
}

// IsSeawater reports whether a location token is open sea.
func IsSeawater(token string) bool {
	_, ok := seawaterTokens[token]
	return ok
}

// IsFreshWater reports whether a location token has drinkable water.
func IsFreshWater(token string) bool {
	_, ok := freshWaterTokens[token]
	return ok
}

// IsCoastal reports whether any quadrant of a main square is seawater.
func IsCoastal(cell Cell) bool {
	for q := 1; q <= 4; q++ {
		if IsSeawater(Format(q, cell)) {
			return true
		}
	}
	return false
}
