package proofstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/proof"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/id"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const defaultMaxBytes = 5 << 20

type HTTPConfig struct {
	// BaseURL is the bucket endpoint; objects are PUT to BaseURL/<key>.
	BaseURL  string
	Token    string
	Timeout  time.Duration
	MaxBytes int64
}

// HTTPStore uploads proof images to an object store that accepts plain PUTs.
// The returned reference is the object key.
type HTTPStore struct {
	client   *fasthttp.Client
	baseURL  string
	token    string
	timeout  time.Duration
	maxBytes int64
	ids      id.Generator
	logger   *logging.Logger
}

func NewHTTPStore(cfg HTTPConfig, ids id.Generator, logger *logging.Logger) (*HTTPStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, crerr.Newf("proof store base url %q must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &HTTPStore{
		client: &fasthttp.Client{
			Name:                "pulse-leaderboard-proofstore",
			MaxConnsPerHost:     16,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:  baseURL,
		token:    strings.TrimSpace(cfg.Token),
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxBytes,
		ids:      ids,
		logger:   logger.Named("proofstore"),
	}, nil
}

func (s *HTTPStore) Put(ctx context.Context, upload proof.Upload) (string, error) {
	if upload.Body == nil {
		return "", crerr.New("proof body is required")
	}
	if upload.Size > s.maxBytes {
		return "", crerr.Newf("proof is %d bytes, limit is %d", upload.Size, s.maxBytes)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	n, err := buf.ReadFrom(io.LimitReader(upload.Body, s.maxBytes+1))
	if err != nil {
		return "", crerr.Wrap(err, "read proof body")
	}
	if n == 0 {
		return "", crerr.New("proof body is empty")
	}
	if n > s.maxBytes {
		return "", crerr.Newf("proof exceeds %d bytes", s.maxBytes)
	}

	key, err := objectKey(s.ids, upload)
	if err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.baseURL + "/" + key)
	req.Header.SetMethod(fasthttp.MethodPut)
	req.Header.SetContentType(upload.ContentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.SetBody(buf.B)

	deadline := time.Now().Add(s.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return "", crerr.Wrapf(err, "upload proof key=%s", key)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusCreated && status != fasthttp.StatusNoContent {
		s.logger.WarnContext(ctx, "proof upload rejected", "status_code", status, "key", key)
		return "", crerr.Newf("proof upload failed with status %d", status)
	}

	return key, nil
}

func objectKey(ids id.Generator, upload proof.Upload) (string, error) {
	suffix, err := ids.NewID()
	if err != nil {
		return "", crerr.Wrap(err, "generate proof key")
	}
	return fmt.Sprintf("proofs/%s/%s/%s-%s%s",
		sanitizeSegment(upload.ScopeID),
		sanitizeSegment(upload.ParticipantID),
		sanitizeSegment(upload.DayKey),
		suffix,
		extensionFor(upload.ContentType),
	), nil
}
