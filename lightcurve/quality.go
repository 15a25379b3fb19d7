package lightcurve

// TESS cadence quality flags.
const (
	AttitudeTweak         uint32 = 1 << 0
	SafeMode              uint32 = 1 << 1
	CoarsePoint           uint32 = 1 << 2
	EarthPoint            uint32 = 1 << 3
	Argabrightening       uint32 = 1 << 4
	Desat                 uint32 = 1 << 5
	ApertureCosmic        uint32 = 1 << 6
	ManualExclude         uint32 = 1 << 7
	Discontinuity         uint32 = 1 << 8
	ImpulsiveOutlier      uint32 = 1 << 9
	CollateralCosmic      uint32 = 1 << 10
	Straylight            uint32 = 1 << 11
	Straylight2           uint32 = 1 << 12
	PlanetSearchExclude   uint32 = 1 << 13
	BadCalibrationExclude uint32 = 1 << 14
	InsufficientTargets   uint32 = 1 << 15
)

// Quality bitmask presets, from permissive to strict.
const (
	// DefaultBitmask rejects cadences that are unusable for almost any
	// science case.
	DefaultBitmask = AttitudeTweak | SafeMode | CoarsePoint | EarthPoint |
		Argabrightening | Desat | ManualExclude | ImpulsiveOutlier |
		BadCalibrationExclude

	// HardBitmask additionally rejects cosmic-ray and stray-light cadences.
	HardBitmask = DefaultBitmask | ApertureCosmic | CollateralCosmic | Straylight | Straylight2

	// HardestBitmask rejects any flagged cadence.
	HardestBitmask uint32 = 1<<16 - 1
)

var qualityNames = []struct {
	bit  uint32
	name string
}{
	{AttitudeTweak, "AttitudeTweak"},
	{SafeMode, "SafeMode"},
	{CoarsePoint, "CoarsePoint"},
	{EarthPoint, "EarthPoint"},
	{Argabrightening, "Argabrightening"},
	{Desat, "Desat"},
	{ApertureCosmic, "ApertureCosmic"},
	{ManualExclude, "ManualExclude"},
	{Discontinuity, "Discontinuity"},
	{ImpulsiveOutlier, "ImpulsiveOutlier"},
	{CollateralCosmic, "CollateralCosmic"},
	{Straylight, "Straylight"},
	{Straylight2, "Straylight2"},
	{PlanetSearchExclude, "PlanetSearchExclude"},
	{BadCalibrationExclude, "BadCalibrationExclude"},
	{InsufficientTargets, "InsufficientTargets"},
}

// DecodeQuality returns the names of the flags set in q, lowest bit first.
// Unknown bits are ignored.
func DecodeQuality(q uint32) []string {
	var out []string
	for _, f := range qualityNames {
		if q&f.bit != 0 {
			out = append(out, f.name)
		}
	}
	return out
}
