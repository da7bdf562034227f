package object

import (
	"net/url"
	"strings"
)

// Ref addresses one object in private storage.
type Ref struct {
	Bucket string
	Key    string
}

// ParseURL reports whether raw points into private object storage and, if so,
// which object. Recognized shapes:
//
//	s3://bucket/key
//	https://bucket.s3[.region].amazonaws.com/key
//	https://s3[.region].amazonaws.com/bucket/key
//	<endpoint>/bucket/key
//	<endpoint>/storage/v1/object/{public,sign,authenticated}/bucket/key
//
// endpoint may be empty, in which case only the AWS shapes are recognized.
func ParseURL(raw, endpoint string) (Ref, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return Ref{}, false
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return refFromParts(u.Host, strings.TrimPrefix(u.Path, "/"))
	case "http", "https":
	default:
		return Ref{}, false
	}

	host := strings.ToLower(u.Hostname())
	p := strings.TrimPrefix(u.Path, "/")

	if strings.HasSuffix(host, ".amazonaws.com") {
		if bucket, ok := virtualHostedBucket(host); ok {
			return refFromParts(bucket, p)
		}
		if isPathStyleHost(host) {
			bucket, key, _ := strings.Cut(p, "/")
			return refFromParts(bucket, key)
		}
		return Ref{}, false
	}

	ep, ok := parseEndpoint(endpoint)
	if !ok || !strings.EqualFold(u.Host, ep.Host) {
		return Ref{}, false
	}
	p = strings.TrimPrefix(p, strings.Trim(ep.Path, "/"))
	p = strings.TrimPrefix(p, "/")

	if rest, ok := strings.CutPrefix(p, "storage/v1/object/"); ok {
		mode, tail, _ := strings.Cut(rest, "/")
		switch mode {
		case "public", "sign", "authenticated":
		default:
			// storage/v1/object/<bucket>/<key> is the authenticated form
			// without an explicit mode.
			tail = rest
		}
		bucket, key, _ := strings.Cut(tail, "/")
		return refFromParts(bucket, key)
	}

	bucket, key, _ := strings.Cut(p, "/")
	return refFromParts(bucket, key)
}

func virtualHostedBucket(host string) (string, bool) {
	idx := strings.Index(host, ".s3.")
	if idx <= 0 {
		idx = strings.Index(host, ".s3-")
	}
	if idx <= 0 {
		return "", false
	}
	return host[:idx], true
}

func isPathStyleHost(host string) bool {
	return strings.HasPrefix(host, "s3.") || strings.HasPrefix(host, "s3-")
}

func parseEndpoint(endpoint string) (*url.URL, bool) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, false
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

func refFromParts(bucket, key string) (Ref, bool) {
	bucket = strings.TrimSpace(bucket)
	key = strings.TrimPrefix(key, "/")
	if bucket == "" || key == "" {
		return Ref{}, false
	}
	return Ref{Bucket: bucket, Key: key}, true
}
