package inference

// DefaultJobRole is used when the service does not name a role.
const DefaultJobRole = "Professional"

// Profile is the structured view of one resume. Every field is always set;
// list fields are never nil.
type Profile struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	JobRole         string   `json:"job_role"`
	ATSScore        int      `json:"ats_score"`
	Summary         []string `json:"summary"`
	Recommendations []string `json:"recommendations"`
	MissingSkills   []string `json:"missing_skills"`
	StrengthAreas   []string `json:"strength_areas"`
}

var (
	fallbackSkills = []string{
		"Microsoft Office",
		"Data Analysis",
		"Project Management",
		"Technical Documentation",
		"Customer Relationship Management",
	}
	fallbackSummary = []string{
		"Experienced professional with a background relevant to the submitted resume.",
		"Demonstrated ability to contribute across projects and teams.",
		"Hands-on experience with common workplace tools and processes.",
		"Track record of delivering assigned responsibilities.",
		"Resume could not be fully analyzed; details may be incomplete.",
	}
	fallbackRecommendations = []string{
		"Quantify achievements with concrete metrics.",
		"List technical skills in a dedicated section.",
		"Use a simple single-column layout so the text can be parsed.",
	}
	fallbackStrengths = []string{
		"Professional experience",
	}
)

// Fallback returns the fixed profile used when inference cannot produce one.
// Only experience and the ATS score depend on the heuristic hint.
func Fallback(experienceHint float64) Profile {
	hint := cleanHint(experienceHint)
	return Profile{
		Skills:          clone(fallbackSkills),
		ExperienceYears: roundOne(hint),
		JobRole:         DefaultJobRole,
		ATSScore:        ScoreFromHint(hint),
		Summary:         clone(fallbackSummary),
		Recommendations: clone(fallbackRecommendations),
		MissingSkills:   []string{},
		StrengthAreas:   clone(fallbackStrengths),
	}
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
