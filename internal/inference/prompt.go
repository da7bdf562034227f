package inference

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxInputChars bounds the resume text sent to the service.
const MaxInputChars = 120000

// SystemPrompt is the fixed instruction contract for profile extraction.
const SystemPrompt = `You are a resume parser. Read the resume text and respond with ONE JSON object and nothing else.

The object must have exactly these keys:
- "skills": array of hard, technical skills named in the resume (tools, languages, frameworks, platforms, methodologies, certifications). Do not include soft skills such as communication, teamwork or leadership unless the resume names them as a specific technical capability.
- "job_role": the single job title that best describes the candidate.
- "experience_years": total years of professional experience as a number.
- "ats_score": integer from 1 to 100 rating how well the resume would pass an applicant tracking system.
- "summary": array of exactly five short sentences summarizing the candidate.
- "recommendations": array of concrete improvements to the resume.
- "missing_skills": array of skills commonly expected for the job role that the resume does not show.
- "strength_areas": array of the candidate's strongest areas.

Use empty arrays instead of null. Do not wrap the JSON in markdown.`

// UserPrompt builds the per-resume message. text is truncated to
// MaxInputChars characters.
func UserPrompt(text, fileName string, experienceHint float64) string {
	var b strings.Builder
	if name := strings.TrimSpace(fileName); name != "" {
		fmt.Fprintf(&b, "File name: %s\n", name)
	}
	fmt.Fprintf(&b, "Estimated years of experience from date ranges: %s\n\n", strconv.FormatFloat(experienceHint, 'f', 1, 64))
	b.WriteString("Resume text:\n")
	b.WriteString(Truncate(text, MaxInputChars))
	return b.String()
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
