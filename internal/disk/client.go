package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/m3rciful/photobot/core/logger"
)

const listPageSize = 200

// Options configure a Yandex.Disk API client.
type Options struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the Yandex.Disk REST API. It implements the five
// operations the bot needs: existence check, directory creation, upload,
// download, and child listing.
type Client struct {
	httpc *http.Client
	base  string
	token string
}

// NewClient constructs a Client; a tuned HTTP client with retrying
// transport is used unless one is provided.
func NewClient(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = buildHTTPClient()
	}
	return &Client{
		httpc: httpc,
		base:  opts.BaseURL,
		token: opts.Token,
	}
}

type apiError struct {
	Status      int
	Code        string `json:"error"`
	Description string `json:"description"`
}

func (e *apiError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("disk api: %s (%s, http %d)", e.Description, e.Code, e.Status)
	}
	return fmt.Sprintf("disk api: %s (http %d)", e.Code, e.Status)
}

type hrefResponse struct {
	Href string `json:"href"`
}

type listResponse struct {
	Embedded struct {
		Items []struct {
			Name string `json:"name"`
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"items"`
		Total int `json:"total"`
	} `json:"_embedded"`
}

// Exists reports whether the remote path exists. A missing path is not
// an error; only transport or auth failures are.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := c.call(ctx, http.MethodGet, "/resources", url.Values{
		"path":   {path},
		"fields": {"path,type"},
	})
	if err != nil {
		return false, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("disk: stat %s: %w", path, decodeError(resp))
	}
}

// Mkdir creates a directory. It fails when the parent does not exist and
// returns ErrExists when the directory is already there.
func (c *Client) Mkdir(ctx context.Context, path string) error {
	resp, err := c.call(ctx, http.MethodPut, "/resources", url.Values{"path": {path}})
	if err != nil {
		return fmt.Errorf("disk: mkdir %s: %w", path, err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		apiErr := decodeError(resp)
		if ae, ok := apiErr.(*apiError); ok && ae.Code == "DiskPathPointsToExistentDirectoryError" {
			return fmt.Errorf("disk: mkdir %s: %w", path, ErrExists)
		}
		return fmt.Errorf("disk: mkdir %s: %w", path, apiErr)
	default:
		return fmt.Errorf("disk: mkdir %s: %w", path, decodeError(resp))
	}
}

// Upload transfers a local file to the remote path without overwriting;
// a name collision surfaces as ErrExists.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	start := time.Now()
	resp, err := c.call(ctx, http.MethodGet, "/resources/upload", url.Values{
		"path":      {remotePath},
		"overwrite": {"false"},
	})
	if err != nil {
		return fmt.Errorf("disk: upload link %s: %w", remotePath, err)
	}
	href, err := decodeHref(resp)
	if err != nil {
		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("disk: upload %s: %w", remotePath, ErrExists)
		}
		return fmt.Errorf("disk: upload link %s: %w", remotePath, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("disk: open staged file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("disk: stat staged file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, href, f)
	if err != nil {
		return fmt.Errorf("disk: upload %s: %w", remotePath, err)
	}
	req.ContentLength = info.Size()

	putResp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("disk: upload %s: %w", remotePath, err)
	}
	defer drain(putResp.Body)
	if putResp.StatusCode != http.StatusCreated && putResp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("disk: upload %s: unexpected status %s", remotePath, putResp.Status)
	}

	logger.Debug(ctx, "disk", "upload.done",
		slog.String("status", "ok"),
		slog.String("path", remotePath),
		slog.Int64("bytes", info.Size()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Download transfers a remote file into localPath; a missing remote path
// surfaces as ErrNotFound.
func (c *Client) Download(ctx context.Context, remotePath, localPath string) error {
	start := time.Now()
	resp, err := c.call(ctx, http.MethodGet, "/resources/download", url.Values{"path": {remotePath}})
	if err != nil {
		return fmt.Errorf("disk: download link %s: %w", remotePath, err)
	}
	href, err := decodeHref(resp)
	if err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("disk: download %s: %w", remotePath, ErrNotFound)
		}
		return fmt.Errorf("disk: download link %s: %w", remotePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return fmt.Errorf("disk: download %s: %w", remotePath, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	getResp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("disk: download %s: %w", remotePath, err)
	}
	defer drain(getResp.Body)
	if getResp.StatusCode != http.StatusOK {
		return fmt.Errorf("disk: download %s: unexpected status %s", remotePath, getResp.Status)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("disk: create staged file: %w", err)
	}
	written, err := io.Copy(f, getResp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return fmt.Errorf("disk: download %s: %w", remotePath, err)
	}

	logger.Debug(ctx, "disk", "download.done",
		slog.String("status", "ok"),
		slog.String("path", remotePath),
		slog.Int64("bytes", written),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// List returns the direct children of a remote directory, paging through
// the API as needed. A missing path surfaces as ErrNotFound; an empty
// directory yields an empty slice.
func (c *Client) List(ctx context.Context, path string) ([]Resource, error) {
	var out []Resource
	for offset := 0; ; offset += listPageSize {
		resp, err := c.call(ctx, http.MethodGet, "/resources", url.Values{
			"path":   {path},
			"limit":  {strconv.Itoa(listPageSize)},
			"offset": {strconv.Itoa(offset)},
			"fields": {"_embedded.items.name,_embedded.items.path,_embedded.items.type,_embedded.total"},
		})
		if err != nil {
			return nil, fmt.Errorf("disk: list %s: %w", path, err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := decodeError(resp)
			drain(resp.Body)
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("disk: list %s: %w", path, ErrNotFound)
			}
			return nil, fmt.Errorf("disk: list %s: %w", path, apiErr)
		}

		var page listResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		drain(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("disk: list %s: %w", path, err)
		}

		for _, item := range page.Embedded.Items {
			out = append(out, Resource{
				Path: item.Path,
				Name: item.Name,
				Type: ResourceType(item.Type),
			})
		}
		if len(out) >= page.Embedded.Total || len(page.Embedded.Items) == 0 {
			return out, nil
		}
	}
}

func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values) (*http.Response, error) {
	u := c.base + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	return c.httpc.Do(req)
}

func decodeHref(resp *http.Response) (string, error) {
	defer drain(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}
	var href hrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&href); err != nil {
		return "", err
	}
	if href.Href == "" {
		return "", fmt.Errorf("empty href in response")
	}
	return href.Href, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &apiError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	if apiErr.Code == "" {
		apiErr.Code = resp.Status
	}
	return apiErr
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
