package object

import "testing"

func TestParseURL(t *testing.T) {
	t.Parallel()

	const endpoint = "https://proj.storage.example.com"

	tests := []struct {
		name   string
		raw    string
		want   Ref
		wantOK bool
	}{
		{name: "s3 scheme", raw: "s3://resumes/u1/cv.pdf", want: Ref{"resumes", "u1/cv.pdf"}, wantOK: true},
		{name: "virtual hosted", raw: "https://resumes.s3.us-east-1.amazonaws.com/u1/cv.pdf", want: Ref{"resumes", "u1/cv.pdf"}, wantOK: true},
		{name: "virtual hosted legacy", raw: "https://resumes.s3.amazonaws.com/cv.pdf", want: Ref{"resumes", "cv.pdf"}, wantOK: true},
		{name: "path style", raw: "https://s3.eu-west-1.amazonaws.com/resumes/u1/cv.pdf", want: Ref{"resumes", "u1/cv.pdf"}, wantOK: true},
		{name: "path style dash region", raw: "https://s3-us-west-2.amazonaws.com/resumes/cv.pdf", want: Ref{"resumes", "cv.pdf"}, wantOK: true},
		{name: "endpoint public", raw: endpoint + "/storage/v1/object/public/resumes/u1/cv.pdf", want: Ref{"resumes", "u1/cv.pdf"}, wantOK: true},
		{name: "endpoint signed", raw: endpoint + "/storage/v1/object/sign/resumes/cv.pdf?token=abc", want: Ref{"resumes", "cv.pdf"}, wantOK: true},
		{name: "endpoint authenticated", raw: endpoint + "/storage/v1/object/authenticated/resumes/cv.pdf", want: Ref{"resumes", "cv.pdf"}, wantOK: true},
		{name: "endpoint bare path", raw: endpoint + "/resumes/cv.pdf", want: Ref{"resumes", "cv.pdf"}, wantOK: true},
		{name: "other host", raw: "https://cdn.example.com/resumes/cv.pdf"},
		{name: "other aws service", raw: "https://lambda.us-east-1.amazonaws.com/resumes/cv.pdf"},
		{name: "missing key", raw: "s3://resumes/"},
		{name: "ftp scheme", raw: "ftp://resumes/cv.pdf"},
		{name: "not a url", raw: "::::"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseURL(tt.raw, endpoint)
			if ok != tt.wantOK {
				t.Fatalf("ParseURL(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("ParseURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseURLWithoutEndpoint(t *testing.T) {
	if _, ok := ParseURL("https://proj.storage.example.com/resumes/cv.pdf", ""); ok {
		t.Fatalf("expected non-AWS host to be treated as public without an endpoint")
	}
}
