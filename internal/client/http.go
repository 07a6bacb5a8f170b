package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/esdbtop/internal/errors"
	"github.com/rileyhilliard/esdbtop/internal/logger"
)

const (
	atomJSON = "application/vnd.eventstore.atom+json"

	// allStart is the position of the first event in $all for forward reads.
	allStart = "00000000000000000000000000000000"

	// defaultMaxBody bounds how much of a response we are willing to buffer.
	defaultMaxBody = 32 << 20
)

// Options configures an HTTPClient.
type Options struct {
	Endpoint           string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	MaxBodyBytes       int64 // caps a single response; zero means 32 MiB
	Logger             logger.Logger
}

// HTTPClient implements Source against a node's HTTP API.
type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	maxBody int64
	log     logger.Logger
}

var _ Source = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the node at opts.Endpoint.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(opts.Endpoint, "/"))
	if err != nil || base.Host == "" {
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid endpoint '%s'", opts.Endpoint),
			"Use the form http://host:2113")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for dev clusters
	}

	var rt http.RoundTripper = transport
	if opts.Username != "" {
		rt = &basicAuthRoundTripper{username: opts.Username, password: opts.Password, next: transport}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	return &HTTPClient{
		base:    base,
		http:    &http.Client{Transport: rt},
		timeout: opts.Timeout,
		maxBody: maxBody,
		log:     log,
	}, nil
}

// Endpoint returns the base address the client talks to.
func (c *HTTPClient) Endpoint() string {
	return c.base.String()
}

type basicAuthRoundTripper struct {
	username string
	password string
	next     http.RoundTripper
}

func (rt *basicAuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(rt.username, rt.password)
	return rt.next.RoundTrip(req)
}

// get performs a single GET of an already escaped path and returns the body.
// 404 and 410 map to NotFound.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, header http.Header) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.base.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot build request for "+path)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("GET %s failed: %v", path, err)
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			fmt.Sprintf("Cannot reach %s", c.base.Host),
			"Check the node is running and the endpoint is correct")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "Connection dropped while reading "+path)
	}
	if int64(len(body)) > c.maxBody {
		return nil, errors.New(errors.ErrMalformed,
			fmt.Sprintf("Response from %s is too large (over %d bytes)", path, c.maxBody),
			"The node returned far more data than a dashboard page needs")
	}
	c.log.Debug("GET %s -> %d in %s", path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, errors.NotFound(path)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.ErrTransport,
			fmt.Sprintf("Access denied to %s (HTTP %d)", path, resp.StatusCode),
			"Check username and password, or use an account in the $ops or $admins group")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.New(errors.ErrTransport,
			fmt.Sprintf("GET %s returned HTTP %d", path, resp.StatusCode),
			"The node may be starting up or shutting down")
	}

	return body, nil
}

// route joins escaped path segments so stream names with spaces or slashes survive.
func route(segs ...string) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (c *HTTPClient) getJSON(ctx context.Context, path, what string, out interface{}) error {
	body, err := c.get(ctx, path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Malformed(err, what)
	}
	return nil
}

// Stats implements Source.
func (c *HTTPClient) Stats(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, route("stats"), nil, nil)
	if err != nil {
		return nil, err
	}
	return FlattenStats(body)
}

// FlattenStats turns a nested stats document into dash-joined keys, e.g.
// {"es":{"queue":{"Indexing":{"length":0}}}} becomes "es-queue-Indexing-length".
func FlattenStats(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root map[string]interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, errors.Malformed(err, "stats")
	}

	out := make(map[string]string)
	flatten("", root, out)
	return out, nil
}

func flatten(prefix string, v interface{}, out map[string]string) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "-" + k
	}

	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			flatten(join(k), child, out)
		}
	case []interface{}:
		for i, child := range t {
			flatten(join(strconv.Itoa(i)), child, out)
		}
	case json.Number:
		out[prefix] = t.String()
	case string:
		out[prefix] = t
	case bool:
		out[prefix] = strconv.FormatBool(t)
	case nil:
		out[prefix] = ""
	}
}

// Gossip implements Source.
func (c *HTTPClient) Gossip(ctx context.Context) ([]Member, error) {
	var doc gossipDoc
	if err := c.getJSON(ctx, route("gossip"), "gossip", &doc); err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(doc.Members))
	for _, m := range doc.Members {
		members = append(members, m.member())
	}
	return members, nil
}

// ServerVersion implements Source.
func (c *HTTPClient) ServerVersion(ctx context.Context) (string, error) {
	var doc struct {
		ESVersion string `json:"esVersion"`
	}
	if err := c.getJSON(ctx, route("info"), "info", &doc); err != nil {
		return "", err
	}
	return doc.ESVersion, nil
}

// ReadStream implements Source.
func (c *HTTPClient) ReadStream(ctx context.Context, name string, opts ReadOptions) ([]Event, error) {
	if name == "" {
		return nil, errors.New(errors.ErrNotFound, "Empty stream name", "")
	}
	return c.readFeed(ctx, name, opts)
}

// ReadAll implements Source.
func (c *HTTPClient) ReadAll(ctx context.Context, opts ReadOptions) ([]Event, error) {
	return c.readFeed(ctx, AllStream, opts)
}

func (c *HTTPClient) readFeed(ctx context.Context, stream string, opts ReadOptions) ([]Event, error) {
	count := opts.MaxCount
	if count <= 0 {
		count = 20
	}

	start := strconv.FormatInt(opts.From, 10)
	if stream == AllStream {
		start = allStart
	}
	if opts.FromEnd {
		start = "head"
	}
	direction := "forward"
	if opts.Backwards {
		direction = "backward"
	}

	path := route("streams", stream, start, direction, strconv.Itoa(count))
	header := http.Header{}
	header.Set("Accept", atomJSON)
	header.Set("ES-ResolveLinkTos", strconv.FormatBool(opts.ResolveLinkTos))

	body, err := c.get(ctx, path, url.Values{"embed": []string{"body"}}, header)
	if err != nil {
		return nil, err
	}

	var feed atomFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, errors.Malformed(err, "stream feed")
	}

	events := make([]Event, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		ev, err := e.event(opts.ResolveLinkTos)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	// Feed pages list newest first; forward reads expect oldest first.
	if !opts.Backwards {
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
	}
	return events, nil
}

// ListProjections implements Source.
func (c *HTTPClient) ListProjections(ctx context.Context) ([]ProjectionSnapshot, error) {
	var doc struct {
		Projections []projectionDoc `json:"projections"`
	}
	if err := c.getJSON(ctx, route("projections", "any"), "projections", &doc); err != nil {
		return nil, err
	}

	out := make([]ProjectionSnapshot, 0, len(doc.Projections))
	for _, p := range doc.Projections {
		out = append(out, p.snapshot())
	}
	return out, nil
}

// ProjectionState implements Source.
func (c *HTTPClient) ProjectionState(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, route("projection", name, "state"), nil, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ProjectionResult implements Source.
func (c *HTTPClient) ProjectionResult(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, route("projection", name, "result"), nil, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ListPersistentSubscriptions implements Source.
func (c *HTTPClient) ListPersistentSubscriptions(ctx context.Context) ([]SubscriptionSnapshot, error) {
	var docs []subscriptionDoc
	if err := c.getJSON(ctx, route("subscriptions"), "subscriptions", &docs); err != nil {
		return nil, err
	}

	out := make([]SubscriptionSnapshot, 0, len(docs))
	for _, d := range docs {
		s, err := d.snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SubscriptionSettings implements Source.
func (c *HTTPClient) SubscriptionSettings(ctx context.Context, stream, group string) (*SubscriptionSettings, error) {
	var doc struct {
		Config *settingsDoc `json:"config"`
	}
	path := route("subscriptions", stream, group, "info")
	if err := c.getJSON(ctx, path, "subscription settings", &doc); err != nil {
		return nil, err
	}
	if doc.Config == nil {
		return nil, errors.NotFound("settings for " + stream + "/" + group)
	}
	return doc.Config.settings(), nil
}
