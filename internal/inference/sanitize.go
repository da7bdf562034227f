package inference

import (
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// rawProfile is the lenient decode target. Keys are matched after
// normalizeKey, so experience_years, experienceYears and ExperienceYears all
// land in the same field. Pointers distinguish missing numbers from zero.
type rawProfile struct {
	Skills          []string `mapstructure:"skills"`
	ExperienceYears *float64 `mapstructure:"experienceyears"`
	JobRole         string   `mapstructure:"jobrole"`
	ATSScore        *float64 `mapstructure:"atsscore"`
	Summary         []string `mapstructure:"summary"`
	Recommendations []string `mapstructure:"recommendations"`
	MissingSkills   []string `mapstructure:"missingskills"`
	StrengthAreas   []string `mapstructure:"strengthareas"`
}

// decodeLenient maps a decoded JSON object onto rawProfile. Fields that fail
// to decode are left empty; the returned error lists them.
func decodeLenient(obj map[string]any) (rawProfile, error) {
	normalized := make(map[string]any, len(obj))
	for k, v := range obj {
		normalized[normalizeKey(k)] = v
	}

	var out rawProfile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return rawProfile{}, err
	}
	err = dec.Decode(normalized)
	return out, err
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

// sanitize turns whatever the service returned into a complete Profile.
func sanitize(raw rawProfile, experienceHint float64) Profile {
	hint := cleanHint(experienceHint)

	years := hint
	if raw.ExperienceYears != nil && isFinite(*raw.ExperienceYears) && *raw.ExperienceYears >= 0 {
		years = *raw.ExperienceYears
	}

	score := ScoreFromHint(hint)
	if raw.ATSScore != nil && isFinite(*raw.ATSScore) {
		score = clampScore(*raw.ATSScore)
	}

	role := strings.TrimSpace(raw.JobRole)
	if role == "" {
		role = DefaultJobRole
	}

	summary := cleanList(raw.Summary)
	if len(summary) > 5 {
		summary = summary[:5]
	}

	return Profile{
		Skills:          dedupe(cleanList(raw.Skills)),
		ExperienceYears: roundOne(years),
		JobRole:         role,
		ATSScore:        score,
		Summary:         summary,
		Recommendations: cleanList(raw.Recommendations),
		MissingSkills:   cleanList(raw.MissingSkills),
		StrengthAreas:   cleanList(raw.StrengthAreas),
	}
}

// ScoreFromHint is the ATS score used when the service gives none:
// min(95, max(50, 60 + round(2 * hint))).
func ScoreFromHint(experienceHint float64) int {
	hint := cleanHint(experienceHint)
	score := 60 + int(math.Round(2*hint))
	return min(95, max(50, score))
}

// clampScore bounds score to 1..100 before converting, so huge values do not
// overflow int.
func clampScore(score float64) int {
	return int(math.Round(min(100, max(1, score))))
}

func cleanHint(hint float64) float64 {
	if !isFinite(hint) || hint < 0 {
		return 0
	}
	return hint
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dedupe keeps the first occurrence of each exact string.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
