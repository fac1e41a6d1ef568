package config

import (
	"strings"

	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"github.com/spf13/viper"
)

// QualityRules are the data-quality policy knobs applied by the validator
// and the reconciler. They come from quality.yml when present, otherwise
// from the defaults below.
type QualityRules struct {
	AllowedSegments   []string `mapstructure:"allowedSegments"`
	AllowedRegions    []string `mapstructure:"allowedRegions"`
	AllowedCategories []string `mapstructure:"allowedCategories"`

	// MaxViolations is the row-violation count above which the run aborts.
	// Violating rows are always excluded from the load regardless.
	MaxViolations int `mapstructure:"maxViolations"`

	// ZeroToleranceRules name the rules that abort the run on their first
	// violation, ahead of the MaxViolations aggregate.
	ZeroToleranceRules []string `mapstructure:"zeroToleranceRules"`

	// Tolerance is the relative tolerance for reconciliation matching.
	Tolerance float64 `mapstructure:"tolerance"`
}

func DefaultQualityRules() QualityRules {
	return QualityRules{
		AllowedSegments:   []string{"Consumer", "Corporate", "Home Office"},
		AllowedRegions:    []string{"East", "West", "Central", "South"},
		AllowedCategories: []string{"Furniture", "Office Supplies", "Technology"},
		MaxViolations:     100,
		ZeroToleranceRules: []string{
			domain.RuleNegativeSales,
			domain.RuleBadDate,
		},
		Tolerance: 1e-6,
	}
}

// LoadQualityRules reads quality.yml from the usual config locations.
// A missing file is not an error; the defaults apply.
func LoadQualityRules() (QualityRules, error) {
	v := viper.New()

	v.SetConfigName("quality")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/retailetl")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RETAILETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultQualityRules()
	v.SetDefault("quality.allowedSegments", defaults.AllowedSegments)
	v.SetDefault("quality.allowedRegions", defaults.AllowedRegions)
	v.SetDefault("quality.allowedCategories", defaults.AllowedCategories)
	v.SetDefault("quality.maxViolations", defaults.MaxViolations)
	v.SetDefault("quality.zeroToleranceRules", defaults.ZeroToleranceRules)
	v.SetDefault("quality.tolerance", defaults.Tolerance)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return QualityRules{}, err
		}
	}

	var rules QualityRules
	if err := v.UnmarshalKey("quality", &rules); err != nil {
		return QualityRules{}, err
	}
	return rules, nil
}

// SegmentAllowed reports whether the segment is in the configured domain.
// An empty allow-list disables the check.
func (r QualityRules) SegmentAllowed(segment string) bool {
	return contains(r.AllowedSegments, segment)
}

func (r QualityRules) RegionAllowed(region string) bool {
	return contains(r.AllowedRegions, region)
}

func (r QualityRules) CategoryAllowed(category string) bool {
	return contains(r.AllowedCategories, category)
}

// ZeroTolerance reports whether a single violation of the rule fails the
// whole run.
func (r QualityRules) ZeroTolerance(rule string) bool {
	for _, z := range r.ZeroToleranceRules {
		if z == rule {
			return true
		}
	}
	return false
}

func contains(values []string, want string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
