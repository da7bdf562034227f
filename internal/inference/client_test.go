package inference

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type completerFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

func replying(raw string) Completer {
	return completerFunc(func(context.Context, string, string) (string, error) { return raw, nil })
}

func failing(err error) Completer {
	return completerFunc(func(context.Context, string, string) (string, error) { return "", err })
}

func assertShape(t *testing.T, p Profile) {
	t.Helper()
	if p.Skills == nil || p.Summary == nil || p.Recommendations == nil || p.MissingSkills == nil || p.StrengthAreas == nil {
		t.Fatalf("profile has nil list: %+v", p)
	}
	if p.ATSScore < 1 || p.ATSScore > 100 {
		t.Fatalf("ats score out of range: %d", p.ATSScore)
	}
	if len(p.Summary) > 5 {
		t.Fatalf("summary too long: %d", len(p.Summary))
	}
	if strings.TrimSpace(p.JobRole) == "" {
		t.Fatalf("job role empty")
	}
	if p.ExperienceYears < 0 || math.IsNaN(p.ExperienceYears) {
		t.Fatalf("bad experience years: %v", p.ExperienceYears)
	}
}

func TestInferParsesResponse(t *testing.T) {
	raw := `{"skills":["Go"," Kubernetes ","Go","go",""],"job_role":"Backend Engineer","experience_years":6.25,` +
		`"ats_score":88,"summary":["a","b","c","d","e","f"],"recommendations":["Add metrics"],` +
		`"missing_skills":[],"strength_areas":["Distributed systems"]}`
	p, err := NewClient(replying(raw)).Infer(context.Background(), "resume text", "cv.pdf", 4)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	assertShape(t, p)
	if got := strings.Join(p.Skills, ","); got != "Go,Kubernetes,go" {
		t.Fatalf("unexpected skills %q", got)
	}
	if p.JobRole != "Backend Engineer" || p.ATSScore != 88 || p.ExperienceYears != 6.3 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if len(p.Summary) != 5 {
		t.Fatalf("expected summary capped at 5, got %d", len(p.Summary))
	}
}

func TestInferRecoversEmbeddedObject(t *testing.T) {
	raw := "Sure! Here is the profile:\n```json\n{\"skills\":[\"SQL\"],\"job_role\":\"Analyst\",\"ats_score\":\"72\"}\n```"
	p, err := NewClient(replying(raw)).Infer(context.Background(), "text", "cv.pdf", 2)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	assertShape(t, p)
	if p.JobRole != "Analyst" || p.ATSScore != 72 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.ExperienceYears != 2 {
		t.Fatalf("expected experience from hint, got %v", p.ExperienceYears)
	}
}

func TestInferMalformedFallsBack(t *testing.T) {
	for _, raw := range []string{"not json at all", "{broken", "[1,2,3]", "null"} {
		p, err := NewClient(replying(raw)).Infer(context.Background(), "text", "cv.pdf", 3)
		var ie *Error
		if !errors.As(err, &ie) || ie.Kind != KindMalformedResponse {
			t.Fatalf("raw %q: expected malformed response error, got %v", raw, err)
		}
		assertShape(t, p)
		if p.ATSScore != 66 {
			t.Fatalf("raw %q: expected fallback ats 66, got %d", raw, p.ATSScore)
		}
		if len(p.Summary) != 5 {
			t.Fatalf("raw %q: expected five-line fallback summary", raw)
		}
	}
}

func TestInferServiceFailures(t *testing.T) {
	tests := []struct {
		name       string
		completer  Completer
		wantKind   Kind
		wantStatus int
	}{
		{name: "network", completer: failing(errors.New("connection reset")), wantKind: KindHTTP},
		{name: "status", completer: failing(&StatusError{StatusCode: 503, Body: "overloaded"}), wantKind: KindHTTP, wantStatus: 503},
		{name: "deadline", completer: failing(context.DeadlineExceeded), wantKind: KindTimeout},
		{name: "not configured", completer: NotConfigured("openai"), wantKind: KindNotConfigured},
		{name: "nil completer", completer: nil, wantKind: KindNotConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewClient(tt.completer).Infer(context.Background(), "text", "cv.pdf", 1.5)
			var ie *Error
			if !errors.As(err, &ie) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ie.Kind != tt.wantKind || ie.StatusCode != tt.wantStatus {
				t.Fatalf("expected %s/%d, got %s/%d", tt.wantKind, tt.wantStatus, ie.Kind, ie.StatusCode)
			}
			assertShape(t, p)
			if p.ATSScore != 63 || p.ExperienceYears != 1.5 {
				t.Fatalf("unexpected fallback %+v", p)
			}
		})
	}
}

func TestInferTimeout(t *testing.T) {
	blocking := completerFunc(func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := NewClient(blocking, WithTimeout(10*time.Millisecond))
	p, err := c.Infer(context.Background(), "text", "cv.pdf", 0)
	var ie *Error
	if !errors.As(err, &ie) || ie.Kind != KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	assertShape(t, p)
}

func TestInferTruncatesInput(t *testing.T) {
	var got string
	capture := completerFunc(func(_ context.Context, _, user string) (string, error) {
		got = user
		return `{}`, nil
	})
	text := strings.Repeat("\u00E9", MaxInputChars+500)
	if _, err := NewClient(capture).Infer(context.Background(), text, "cv.pdf", 0); err != nil {
		t.Fatalf("infer: %v", err)
	}
	body := got[strings.Index(got, "Resume text:\n")+len("Resume text:\n"):]
	if n := utf8.RuneCountInString(body); n != MaxInputChars {
		t.Fatalf("expected %d characters, got %d", MaxInputChars, n)
	}
	if !strings.Contains(got, "File name: cv.pdf") {
		t.Fatalf("expected file name hint in prompt")
	}
}

func TestSanitize(t *testing.T) {
	neg := -2.0
	nan := math.NaN()
	big := 150.4
	huge := 1e20
	hugeNeg := -1e20
	tests := []struct {
		name      string
		raw       rawProfile
		hint      float64
		wantYears float64
		wantScore int
		wantRole  string
	}{
		{name: "empty uses hints", raw: rawProfile{}, hint: 3.4, wantYears: 3.4, wantScore: 67, wantRole: DefaultJobRole},
		{name: "negative years", raw: rawProfile{ExperienceYears: &neg}, hint: 2, wantYears: 2, wantScore: 64, wantRole: DefaultJobRole},
		{name: "nan score", raw: rawProfile{ATSScore: &nan, JobRole: "  "}, hint: 0, wantYears: 0, wantScore: 60, wantRole: DefaultJobRole},
		{name: "score clamped", raw: rawProfile{ATSScore: &big, JobRole: " SRE "}, hint: 0, wantYears: 0, wantScore: 100, wantRole: "SRE"},
		{name: "score beyond int range", raw: rawProfile{ATSScore: &huge}, hint: 0, wantYears: 0, wantScore: 100, wantRole: DefaultJobRole},
		{name: "score far below range", raw: rawProfile{ATSScore: &hugeNeg}, hint: 0, wantYears: 0, wantScore: 1, wantRole: DefaultJobRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sanitize(tt.raw, tt.hint)
			assertShape(t, p)
			if p.ExperienceYears != tt.wantYears || p.ATSScore != tt.wantScore || p.JobRole != tt.wantRole {
				t.Fatalf("got years=%v score=%d role=%q", p.ExperienceYears, p.ATSScore, p.JobRole)
			}
		})
	}
}

func TestDecodeLenient(t *testing.T) {
	obj := map[string]any{
		"jobRole":         "Data Engineer",
		"ExperienceYears": "7",
		"ATS_Score":       91.0,
		"summary":         "single line",
		"skills":          []any{"Python", 3.0},
		"strength_areas":  map[string]any{"bad": "shape"},
	}
	raw, err := decodeLenient(obj)
	if err == nil {
		t.Fatalf("expected decode error for strength_areas")
	}
	if raw.JobRole != "Data Engineer" || raw.ExperienceYears == nil || *raw.ExperienceYears != 7 {
		t.Fatalf("unexpected decode %+v", raw)
	}
	if raw.ATSScore == nil || *raw.ATSScore != 91 {
		t.Fatalf("expected ats 91")
	}
	if len(raw.Summary) != 1 || raw.Summary[0] != "single line" {
		t.Fatalf("expected single string lifted to list, got %v", raw.Summary)
	}
	if len(raw.Skills) != 2 || raw.Skills[1] != "3" {
		t.Fatalf("expected weakly typed skills, got %v", raw.Skills)
	}
}

func TestScoreFromHint(t *testing.T) {
	tests := []struct {
		hint float64
		want int
	}{
		{0, 60}, {2.5, 65}, {20, 95}, {-3, 60}, {math.Inf(1), 60},
	}
	for _, tt := range tests {
		if got := ScoreFromHint(tt.hint); got != tt.want {
			t.Fatalf("ScoreFromHint(%v) = %d, want %d", tt.hint, got, tt.want)
		}
	}
}

func TestValidateShape(t *testing.T) {
	valid := map[string]any{
		"skills": []any{"Go"}, "job_role": "Engineer", "experience_years": 3.0, "ats_score": 80.0,
		"summary": []any{}, "recommendations": []any{}, "missing_skills": []any{}, "strength_areas": []any{},
	}
	if err := validateShape(valid); err != nil {
		t.Fatalf("expected valid shape, got %v", err)
	}
	if err := validateShape(map[string]any{"skills": "Go"}); err == nil {
		t.Fatalf("expected schema violation")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("h\u00E9llo", 2); got != "h\u00E9" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
}
