package types

// Array growth policy shared by the subkeys and values arrays (spec §3):
// grow by 1.5x, shrink by 0.67x once length drops below half of capacity,
// floor post-grow capacity at the respective minimum.
const (
	GrowthFactor = 1.5
	ShrinkFactor = 0.67
	ShrinkRatio  = 0.5 // shrink once length < capacity * ShrinkRatio

	MinSubkeys = 8
	MinValues  = 8
)

// Limits bounds the sizes that tree.Key.CreateKey (MaxSubkeys, MaxNameLen,
// MaxTreeDepth) and the dispatcher's SetKeyValue (MaxValues, MaxNameLen,
// MaxValueSize) accept before reporting ErrOutOfMemory; the v2 loader does
// not apply them. The C source had no explicit policy here (value
// sizes were bounded implicitly by the RPC request buffer); a complete
// in-memory store needs one, so Limits is opt-in and defaults to "no limit"
// via DefaultLimits, with RelaxedLimits/StrictLimits presets for callers
// that do want a guard.
type Limits struct {
	// MaxSubkeys bounds the number of subkeys a key may have. Zero means
	// unbounded.
	MaxSubkeys int

	// MaxValues bounds the number of values a key may have. Zero means
	// unbounded.
	MaxValues int

	// MaxValueSize bounds a single value's data length in bytes. Zero means
	// unbounded.
	MaxValueSize int

	// MaxNameLen bounds the length, in UTF-16 code units, of a key or value
	// name. Zero means unbounded.
	MaxNameLen int

	// MaxTreeDepth bounds how many ancestors a key may have. Zero means
	// unbounded.
	MaxTreeDepth int
}

// DefaultLimits returns an unbounded Limits, matching the original source's
// behavior of relying entirely on the RPC request buffer's own capacity.
func DefaultLimits() Limits {
	return Limits{}
}

// RelaxedLimits returns generous but finite bounds.
func RelaxedLimits() Limits {
	return Limits{
		MaxSubkeys:   65535,
		MaxValues:    16384,
		MaxValueSize: 10 << 20,
		MaxNameLen:   16383,
		MaxTreeDepth: 1024,
	}
}

// StrictLimits returns conservative bounds suitable for an embedding that
// wants to cap resource usage tightly.
func StrictLimits() Limits {
	return Limits{
		MaxSubkeys:   512,
		MaxValues:    1024,
		MaxValueSize: 64 << 10,
		MaxNameLen:   255,
		MaxTreeDepth: 128,
	}
}
