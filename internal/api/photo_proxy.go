package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// PhotoProxy streams Telegram-hosted photos through the API so poster images
// stay reachable without exposing the bot token.
type PhotoProxy struct {
	token  string
	client *http.Client
	base   string
}

// Image is a fetched photo payload.
type Image struct {
	Data        []byte
	ContentType string
}

// NewPhotoProxy builds a proxy over the Telegram file API. A nil client
// falls back to http.DefaultClient.
func NewPhotoProxy(token string, client *http.Client) *PhotoProxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &PhotoProxy{
		token:  token,
		client: client,
		base:   "https://api.telegram.org",
	}
}

// Fetch resolves the file id and downloads the image bytes.
func (p *PhotoProxy) Fetch(ctx context.Context, fileID string) (Image, error) {
	filePath, err := p.resolve(ctx, fileID)
	if err != nil {
		return Image{}, err
	}

	dl := fmt.Sprintf("%s/file/bot%s/%s", p.base, p.token, filePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dl, nil)
	if err != nil {
		return Image{}, fmt.Errorf("api: build download request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("api: download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("api: download photo: status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return Image{}, fmt.Errorf("api: read photo: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return Image{Data: data, ContentType: ct}, nil
}

func (p *PhotoProxy) resolve(ctx context.Context, fileID string) (string, error) {
	u := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", p.base, p.token, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("api: build getFile request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api: getFile: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK     bool `json:"ok"`
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("api: decode getFile response: %w", err)
	}
	if !body.OK || body.Result.FilePath == "" {
		return "", fmt.Errorf("api: file %q not found", fileID)
	}
	return body.Result.FilePath, nil
}
