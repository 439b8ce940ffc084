package normalize

import (
	"fmt"
	"sort"
)

// Thai honorifics that prefix administrative names in Thai-script sources.
// Khet is used for Bangkok districts instead of amphoe.
const (
	HonorificProvince = "จังหวัด"
	HonorificAmphoe   = "อำเภอ"
	HonorificKhet     = "เขต"
)

// The capital appears under its ceremonial romanization in some tables and
// as "BangkokMetropolis" in GADM boundaries.
const (
	capitalAlias     = "KrungThepMahaNakhon"
	capitalCanonical = "BangkokMetropolis"
)

var presets = map[string]*Policy{
	"none": MustNew("none"),
	"thai-province": MustNew("thai-province",
		Rule{Kind: KindNFC},
		Rule{Kind: KindStripSpace},
		Rule{Kind: KindTrimPrefix, Value: HonorificProvince},
		Rule{Kind: KindAlias, Value: capitalAlias, To: capitalCanonical},
	),
	"thai-district": MustNew("thai-district",
		Rule{Kind: KindNFC},
		Rule{Kind: KindStripSpace},
		Rule{Kind: KindTrimPrefix, Value: HonorificProvince},
		Rule{Kind: KindTrimPrefix, Value: HonorificAmphoe},
		Rule{Kind: KindTrimPrefix, Value: HonorificKhet},
		Rule{Kind: KindAlias, Value: capitalAlias, To: capitalCanonical},
	),
}

// Preset returns a built-in policy by name.
func Preset(name string) (*Policy, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown normalization preset %q (have %v)", name, PresetNames())
	}
	return p, nil
}

// PresetNames lists the built-in policies.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
