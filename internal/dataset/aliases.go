package dataset

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/intelligrit/choropleth/internal/model"
	"github.com/intelligrit/choropleth/internal/normalize"
)

// nativeAliases derives alias rules that send a region's local-script name to
// its romanized name, both normalized by policy, so a table written in Thai
// joins against GADM's English NAME_1 and NAME_2. A native name that maps to
// two different regions, or that is itself some region's romanized name,
// yields no rule.
func nativeAliases(
	recs []model.RegionRecord,
	policy *normalize.Policy,
	native, romanized func(model.RegionRecord) string,
	logger zerolog.Logger,
) []normalize.Rule {
	targets := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if r := policy.Normalize(romanized(rec)); r != "" {
			targets[r] = true
		}
	}

	aliases := make(map[string]string)
	ambiguous := make(map[string]bool)
	for _, rec := range recs {
		to := policy.Normalize(romanized(rec))
		if to == "" {
			continue
		}
		for _, part := range strings.Split(native(rec), "|") {
			from := policy.Normalize(strings.TrimSpace(part))
			if from == "" || from == to || targets[from] {
				continue
			}
			if prev, ok := aliases[from]; ok && prev != to {
				ambiguous[from] = true
			}
			aliases[from] = to
		}
	}

	rules := make([]normalize.Rule, 0, len(aliases))
	for from, to := range aliases {
		if ambiguous[from] {
			logger.Debug().Str("name", from).Msg("native name matches several regions, no alias")
			continue
		}
		rules = append(rules, normalize.Rule{Kind: normalize.KindAlias, Value: from, To: to})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Value < rules[j].Value })
	return rules
}

func nativeProvince(r model.RegionRecord) string { return r.NativeProvince }
func nativeDistrict(r model.RegionRecord) string { return r.NativeDistrict }
func province(r model.RegionRecord) string { return r.Province }
func district(r model.RegionRecord) string { return r.District }
