package pdfservices

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/local/pdfextract/internal/config"
	"github.com/local/pdfextract/internal/extract"
	"github.com/local/pdfextract/internal/logger"
	"github.com/local/pdfextract/internal/metrics"
)

const (
	DefaultBaseURL = "https://pdf-services.adobe.io"

	jobInProgress = "in progress"
	jobDone       = "done"
	jobFailed     = "failed"
)

var errInProgress = errors.New("job in progress")

// Options configures a Client.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	PollInitial time.Duration
	PollMax     time.Duration
	HTTPClient  *http.Client
}

// OptionsFromConfig maps the service section of the process config.
func OptionsFromConfig(cfg config.PDFServicesConfig) Options {
	return Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		PollInitial: cfg.PollInitial,
		PollMax:     cfg.PollMax,
	}
}

// Client runs Extract PDF jobs over the PDF Services REST API.
type Client struct {
	http        *http.Client
	baseURL     string
	timeout     time.Duration
	pollInitial time.Duration
	pollMax     time.Duration
}

func New(opts Options) *Client {
	c := &Client{
		http:        opts.HTTPClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		timeout:     opts.Timeout,
		pollInitial: opts.PollInitial,
		pollMax:     opts.PollMax,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pollInitial <= 0 {
		c.pollInitial = time.Second
	}
	if c.pollMax < c.pollInitial {
		c.pollMax = c.pollInitial
	}
	return c
}

type session struct {
	token    string
	clientID string
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type assetReq struct {
	MediaType string `json:"mediaType"`
}

type assetResp struct {
	UploadURI string `json:"uploadUri"`
	AssetID   string `json:"assetID"`
}

type extractReq struct {
	AssetID             string   `json:"assetID"`
	ElementsToExtract   []string `json:"elementsToExtract"`
	RenditionsToExtract []string `json:"renditionsToExtract,omitempty"`
}

type assetRef struct {
	AssetID     string `json:"assetID"`
	DownloadURI string `json:"downloadUri"`
}

type jobStatus struct {
	Status   string       `json:"status"`
	Content  *assetRef    `json:"content,omitempty"`
	Resource *assetRef    `json:"resource,omitempty"`
	Error    *errorDetail `json:"error,omitempty"`
}

// Invoke uploads the source PDF, submits an extraction job, waits for it and
// opens the result archive. It makes no retries.
func (c *Client) Invoke(ctx context.Context, req extract.Request) (*extract.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		// the download body outlives Invoke; cancel when it is closed
		res, err := c.invoke(ctx, req)
		if err != nil {
			cancel()
			return nil, err
		}
		return res.WithCleanup(cancel), nil
	}
	return c.invoke(ctx, req)
}

func (c *Client) invoke(ctx context.Context, req extract.Request) (*extract.Result, error) {
	src, err := os.Open(req.FilePath)
	if err != nil {
		return nil, extract.Wrap(extract.KindSDK, "open source", err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return nil, extract.Wrap(extract.KindSDK, "open source", err)
	}

	s, err := c.authenticate(ctx, req.Credentials)
	if err != nil {
		return nil, classify("authenticate", err)
	}
	asset, err := c.createAsset(ctx, s)
	if err != nil {
		return nil, classify("create asset", err)
	}
	if err := c.upload(ctx, asset.UploadURI, src, info.Size()); err != nil {
		return nil, classify("upload", err)
	}
	location, err := c.submit(ctx, s, asset.AssetID, req.Options)
	if err != nil {
		return nil, classify("submit job", err)
	}
	l := logger.Component("pdfservices")
	l.Debug().Str("asset_id", asset.AssetID).Str("location", location).Msg("extract job submitted")

	st, err := c.wait(ctx, s, location)
	if err != nil {
		return nil, classify("poll job", err)
	}
	ref := st.Resource
	if ref == nil || ref.DownloadURI == "" {
		ref = st.Content
	}
	if ref == nil || ref.DownloadURI == "" {
		return nil, extract.Errorf(extract.KindSDK, "poll job", "job finished without a download uri")
	}
	res, err := c.download(ctx, ref)
	if err != nil {
		return nil, classify("download", err)
	}
	return res, nil
}

func (c *Client) authenticate(ctx context.Context, creds extract.Credentials) (session, error) {
	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return session{}, err
	}
	hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResp
	if _, err := c.doJSON(hreq, "token", &tr); err != nil {
		return session{}, err
	}
	if tr.AccessToken == "" {
		return session{}, fmt.Errorf("token response has no access_token")
	}
	return session{token: tr.AccessToken, clientID: creds.ClientID}, nil
}

func (c *Client) createAsset(ctx context.Context, s session) (assetResp, error) {
	body, _ := json.Marshal(assetReq{MediaType: "application/pdf"})
	hreq, err := c.apiRequest(ctx, s, http.MethodPost, c.baseURL+"/assets", body)
	if err != nil {
		return assetResp{}, err
	}
	var ar assetResp
	if _, err := c.doJSON(hreq, "asset", &ar); err != nil {
		return assetResp{}, err
	}
	if ar.UploadURI == "" || ar.AssetID == "" {
		return assetResp{}, fmt.Errorf("asset response missing uploadUri or assetID")
	}
	return ar, nil
}

func (c *Client) upload(ctx context.Context, uploadURI string, src io.Reader, size int64) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURI, src)
	if err != nil {
		return err
	}
	hreq.ContentLength = size
	hreq.Header.Set("Content-Type", "application/pdf")
	resp, err := c.send(hreq, "upload")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) submit(ctx context.Context, s session, assetID string, opts extract.Options) (string, error) {
	er := extractReq{AssetID: assetID}
	for _, e := range opts.Elements() {
		er.ElementsToExtract = append(er.ElementsToExtract, string(e))
	}
	for _, r := range opts.Renditions() {
		er.RenditionsToExtract = append(er.RenditionsToExtract, string(r))
	}
	body, _ := json.Marshal(er)
	hreq, err := c.apiRequest(ctx, s, http.MethodPost, c.baseURL+"/operation/extractpdf", body)
	if err != nil {
		return "", err
	}
	resp, err := c.send(hreq, "submit")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("job accepted without a Location header")
	}
	return location, nil
}

// wait polls the job with exponentially growing intervals until it leaves
// the in-progress state or ctx ends.
func (c *Client) wait(ctx context.Context, s session, location string) (jobStatus, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.pollInitial
	b.MaxInterval = c.pollMax
	b.MaxElapsedTime = 0

	var final jobStatus
	poll := func() error {
		hreq, err := c.apiRequest(ctx, s, http.MethodGet, location, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		var st jobStatus
		resp, err := c.doJSON(hreq, "poll", &st)
		if err != nil {
			return backoff.Permanent(err)
		}
		switch strings.ToLower(st.Status) {
		case jobDone:
			final = st
			return nil
		case jobFailed:
			he := &HTTPError{Step: "poll", StatusCode: resp.StatusCode, RequestID: resp.Header.Get("x-request-id"), Message: "job failed"}
			if st.Error != nil {
				he.Code, he.Message = st.Error.Code, st.Error.Message
				if st.Error.Status != 0 {
					he.StatusCode = st.Error.Status
				}
			}
			return backoff.Permanent(he)
		case jobInProgress, "":
			return errInProgress
		default:
			return backoff.Permanent(fmt.Errorf("unknown job status %q", st.Status))
		}
	}
	if err := backoff.Retry(poll, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, errInProgress) && ctx.Err() != nil {
			return jobStatus{}, ctx.Err()
		}
		return jobStatus{}, err
	}
	return final, nil
}

func (c *Client) download(ctx context.Context, ref *assetRef) (*extract.Result, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.DownloadURI, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(hreq, "download")
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(resp.Body, 4096)
	head, err := br.Peek(3072)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		resp.Body.Close()
		return nil, fmt.Errorf("read archive: %w", err)
	}
	mt := mimetype.Detect(head)
	if !isZip(mt) {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected result content type %s", mt.String())
	}
	return extract.NewResult(ref.AssetID, mt.String(), readCloser{Reader: br, Closer: resp.Body}), nil
}

func isZip(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

// readCloser streams the archive body; read errors come back as KindSDK.
type readCloser struct {
	io.Reader
	io.Closer
}

func (r readCloser) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err != nil && err != io.EOF {
		err = classify("download", err)
	}
	return n, err
}

func (c *Client) apiRequest(ctx context.Context, s session, method, target string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Authorization", "Bearer "+s.token)
	hreq.Header.Set("X-API-Key", s.clientID)
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	return hreq, nil
}

// send performs the call and turns non-2xx answers into *HTTPError. On
// success the caller owns resp.Body.
func (c *Client) send(hreq *http.Request, step string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		metrics.ObserveServiceCall(step, 0, time.Since(start))
		return nil, err
	}
	metrics.ObserveServiceCall(step, resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		he := parseErrorBody(step, resp.StatusCode, resp.Header.Get("x-request-id"), b)
		l := logger.Component("pdfservices")
		l.Warn().Str("step", step).Int("status", resp.StatusCode).Str("code", he.Code).Str("request_id", he.RequestID).Msg("pdf services call failed")
		return nil, he
	}
	return resp, nil
}

func (c *Client) doJSON(hreq *http.Request, step string, out any) (*http.Response, error) {
	resp, err := c.send(hreq, step)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", step, err)
	}
	return resp, nil
}
