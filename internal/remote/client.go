package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"antrianbot/internal/queue"
	logx "antrianbot/pkg/logx"
)

const (
	DefaultBaseURL   = "https://antrian.rsuii.co.id/"
	DefaultTimeout   = 25 * time.Second
	defaultUserAgent = "antrianbot/1.0 (+queue monitor)"

	// maxBodyBytes bounds a single page read.
	maxBodyBytes = 4 << 20
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration // per request
	UserAgent string
}

// Client fetches pages from the queue site. It is safe for concurrent use:
// every fetch sequence runs in its own session (cookie jar), sharing only the
// connection pool.
type Client struct {
	cfg       Config
	base      *url.URL
	transport http.RoundTripper
	log       logx.Logger
	now       func() time.Time
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("remote.base_url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote.base_url: unsupported scheme %q", base.Scheme)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:       cfg,
		base:      base,
		transport: http.DefaultTransport,
		log:       log,
		now:       time.Now,
	}, nil
}

// WithTransport swaps the round tripper. Tests point it at httptest servers.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	cp := *c
	cp.transport = rt
	return &cp
}

// Close releases idle connections.
func (c *Client) Close() error {
	if t, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

type session struct {
	c  *Client
	hc *http.Client
}

func (c *Client) newSession() *session {
	jar, _ := cookiejar.New(nil)
	return &session{c: c, hc: &http.Client{Transport: c.transport, Jar: jar}}
}

// Open starts a new session and fetches the landing page.
func (c *Client) Open(ctx context.Context) (*Page, error) {
	s := c.newSession()
	req, err := http.NewRequest(http.MethodGet, c.base.String(), nil)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, "get", req)
}

// SubmitSelection posts the live form of page back with fields overridden and
// eventTarget recorded as the triggering control. Every other field is echoed
// unchanged.
func (c *Client) SubmitSelection(ctx context.Context, page *Page, eventTarget string, fields map[string]string) (*Page, error) {
	st, err := ParseForm(page)
	if err != nil {
		return nil, err
	}
	st = st.Apply(FieldUpdate{EventTarget: eventTarget, Fields: fields})

	s := page.sess
	if s == nil {
		s = c.newSession()
	}
	action := st.Action
	if action == nil {
		action = c.base
	}
	req, err := http.NewRequest(http.MethodPost, action.String(), strings.NewReader(st.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if page.URL != nil {
		req.Header.Set("Referer", page.URL.String())
	}
	return s.do(ctx, "post", req)
}

func (s *session) do(ctx context.Context, op string, req *http.Request) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.c.cfg.Timeout)
	defer cancel()

	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", s.c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &NetworkError{Op: op, URL: req.URL.String(), StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: "read", URL: req.URL.String(), Err: err}
	}

	s.c.log.Debug("page fetched",
		logx.String("op", op),
		logx.String("url", req.URL.String()),
		logx.Int("bytes", len(body)),
		logx.Duration("took", time.Since(start)),
	)

	page, err := ParsePage(resp.Request.URL, body)
	if err != nil {
		return nil, &RemoteFormatError{What: "html document", Err: err}
	}
	page.sess = s
	return page, nil
}

// PoliOptions lists the clinics offered on the landing page.
func (c *Client) PoliOptions(ctx context.Context) ([]Option, error) {
	page, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}
	return Options(page, FieldPoli), nil
}

// DoctorOptions lists the doctors of a clinic after selecting it.
func (c *Client) DoctorOptions(ctx context.Context, poliValue string) ([]Option, error) {
	page, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}
	page, err = c.SubmitSelection(ctx, page, FieldPoli, map[string]string{
		FieldPoli:   poliValue,
		FieldDoctor: "",
	})
	if err != nil {
		return nil, err
	}
	return Options(page, FieldDoctor), nil
}

// FetchSnapshot replays clinic then doctor selection and extracts the queue.
func (c *Client) FetchSnapshot(ctx context.Context, poliValue, doctorValue string) (queue.Snapshot, error) {
	page, err := c.Open(ctx)
	if err != nil {
		return queue.Snapshot{}, err
	}
	page, err = c.SubmitSelection(ctx, page, FieldPoli, map[string]string{
		FieldPoli:   poliValue,
		FieldDoctor: "",
	})
	if err != nil {
		return queue.Snapshot{}, err
	}
	page, err = c.SubmitSelection(ctx, page, FieldDoctor, map[string]string{
		FieldPoli:   poliValue,
		FieldDoctor: doctorValue,
	})
	if err != nil {
		return queue.Snapshot{}, err
	}
	return Extract(page, poliValue, doctorValue, c.now()), nil
}
