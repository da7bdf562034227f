package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resume-ingest/internal/shared/storage/object"
	"resume-ingest/internal/shared/telemetry"
)

// DefaultMaxBytes caps a single document body.
const DefaultMaxBytes = 10 << 20

// Source names where a document lives. It is either a StorageRef or a RemoteURL.
type Source interface {
	fmt.Stringer
	isSource()
}

// StorageRef addresses an object in private storage.
type StorageRef struct {
	Bucket string
	Path   string
}

func (StorageRef) isSource() {}

func (r StorageRef) String() string {
	return r.Bucket + "/" + strings.TrimLeft(r.Path, "/")
}

// RemoteURL is a document URL. URLs that point into private storage are
// downloaded with service credentials instead of an anonymous GET.
type RemoteURL struct {
	URL string
}

func (RemoteURL) isSource() {}

func (u RemoteURL) String() string {
	return u.URL
}

// Document is a fetched document body and the content type reported by its
// origin, if any.
type Document struct {
	Data        []byte
	ContentType string
}

// Options configures a Fetcher.
type Options struct {
	Store           object.Store
	HTTPClient      *http.Client
	StorageEndpoint string
	MaxBytes        int64
}

// Fetcher retrieves document bytes. It performs exactly one attempt per call.
type Fetcher struct {
	store    object.Store
	client   *http.Client
	endpoint string
	maxBytes int64
}

// New creates a Fetcher. A nil Store makes every storage download fail as
// unavailable.
func New(opts Options) *Fetcher {
	store := opts.Store
	if store == nil {
		store = object.Unavailable(nil)
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		store:    store,
		client:   client,
		endpoint: strings.TrimSpace(opts.StorageEndpoint),
		maxBytes: maxBytes,
	}
}

// Fetch returns the bytes of src. Failures are *Error values.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (Document, error) {
	switch s := src.(type) {
	case StorageRef:
		return f.download(ctx, s.Bucket, s.Path, s.String())
	case RemoteURL:
		if ref, ok := object.ParseURL(s.URL, f.endpoint); ok {
			telemetry.Info("fetch.private_url", map[string]any{
				"bucket": ref.Bucket,
				"key":    ref.Key,
			})
			return f.download(ctx, ref.Bucket, ref.Key, s.URL)
		}
		return f.get(ctx, s.URL)
	default:
		return Document{}, &Error{Kind: KindHTTP, Source: fmt.Sprint(src), Err: errors.New("unsupported source")}
	}
}

func (f *Fetcher) download(ctx context.Context, bucket, key, label string) (Document, error) {
	obj, err := f.store.Open(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Document{}, &Error{Kind: KindNotFound, Source: label, Err: err}
		}
		return Document{}, &Error{Kind: KindStorageUnavailable, Source: label, Err: err}
	}
	defer obj.Body.Close()

	if obj.Size > f.maxBytes {
		return Document{}, &Error{Kind: KindTooLarge, Source: label, Err: fmt.Errorf("%d bytes", obj.Size)}
	}
	data, err := readLimited(obj.Body, f.maxBytes)
	if err != nil {
		kind := KindStorageUnavailable
		if errors.Is(err, errTooLarge) {
			kind = KindTooLarge
		}
		return Document{}, &Error{Kind: kind, Source: label, Err: err}
	}
	return Document{Data: data, ContentType: obj.ContentType}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, &Error{Kind: KindHTTP, Source: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Document{}, &Error{Kind: KindHTTP, Source: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Document{}, &Error{Kind: KindHTTP, StatusCode: resp.StatusCode, Source: rawURL}
	}
	if resp.ContentLength > f.maxBytes {
		return Document{}, &Error{Kind: KindTooLarge, Source: rawURL, Err: fmt.Errorf("%d bytes", resp.ContentLength)}
	}

	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		kind := KindHTTP
		if errors.Is(err, errTooLarge) {
			kind = KindTooLarge
		}
		return Document{}, &Error{Kind: kind, Source: rawURL, Err: err}
	}
	return Document{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

var errTooLarge = errors.New("document exceeds size limit")

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}
