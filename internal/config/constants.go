package config

// Constants is the frozen form of a TuningConfig. It is passed by value into
// every reconstruction stage, so two detector configurations can run side by
// side without sharing anything mutable.
type Constants struct {
	CmPerNs       float64
	StandoffCm    float64
	CoincidenceNs float64
	TimeResNs     float64

	PairDistanceFraction float64
	PairTimeFraction     float64

	MinIsolatedHits int
	MinRelated      int
	MinSelectedHits int
	MaxHits         int
	ClusterTieBreak string

	MaxComboHits      int
	MaxCombinations   int64
	WindowToleranceNs float64
	MaxWindowSteps    int

	SideFraction        float64
	CapFraction         float64
	MinPointSeparation2 float64
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		CmPerNs:              ptrFloat64(empty.GetCmPerNs()),
		StandoffCm:           ptrFloat64(empty.GetStandoffCm()),
		CoincidenceNs:        ptrFloat64(empty.GetCoincidenceNs()),
		TimeResNs:            ptrFloat64(empty.GetTimeResNs()),
		PairDistanceFraction: ptrFloat64(empty.GetPairDistanceFraction()),
		PairTimeFraction:     ptrFloat64(empty.GetPairTimeFraction()),
		MinIsolatedHits:      ptrInt(empty.GetMinIsolatedHits()),
		MinRelated:           ptrInt(empty.GetMinRelated()),
		MinSelectedHits:      ptrInt(empty.GetMinSelectedHits()),
		MaxHits:              ptrInt(empty.GetMaxHits()),
		ClusterTieBreak:      ptrString(empty.GetClusterTieBreak()),
		MaxComboHits:         ptrInt(empty.GetMaxComboHits()),
		MaxCombinations:      ptrInt64(empty.GetMaxCombinations()),
		WindowToleranceNs:    ptrFloat64(empty.GetWindowToleranceNs()),
		MaxWindowSteps:       ptrInt(empty.GetMaxWindowSteps()),
		SideFraction:         ptrFloat64(empty.GetSideFraction()),
		CapFraction:          ptrFloat64(empty.GetCapFraction()),
		MinPointSeparation2:  ptrFloat64(empty.GetMinPointSeparation2()),
	}
}

// Constants freezes the configuration, resolving every default.
func (c *TuningConfig) Constants() Constants {
	return Constants{
		CmPerNs:              c.GetCmPerNs(),
		StandoffCm:           c.GetStandoffCm(),
		CoincidenceNs:        c.GetCoincidenceNs(),
		TimeResNs:            c.GetTimeResNs(),
		PairDistanceFraction: c.GetPairDistanceFraction(),
		PairTimeFraction:     c.GetPairTimeFraction(),
		MinIsolatedHits:      c.GetMinIsolatedHits(),
		MinRelated:           c.GetMinRelated(),
		MinSelectedHits:      c.GetMinSelectedHits(),
		MaxHits:              c.GetMaxHits(),
		ClusterTieBreak:      c.GetClusterTieBreak(),
		MaxComboHits:         c.GetMaxComboHits(),
		MaxCombinations:      c.GetMaxCombinations(),
		WindowToleranceNs:    c.GetWindowToleranceNs(),
		MaxWindowSteps:       c.GetMaxWindowSteps(),
		SideFraction:         c.GetSideFraction(),
		CapFraction:          c.GetCapFraction(),
		MinPointSeparation2:  c.GetMinPointSeparation2(),
	}
}

// DefaultConstants returns the built-in constants without touching disk.
func DefaultConstants() Constants {
	return EmptyTuningConfig().Constants()
}
