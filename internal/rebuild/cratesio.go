package rebuild

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// CratesIOClient is the default RegistryClient/Downloader, backed by the
// crates.io HTTP API.
type CratesIOClient struct {
	client *resty.Client
}

// NewCratesIOClient returns a client with a bounded request timeout,
// identifying itself per crates.io's API etiquette policy.
func NewCratesIOClient() *CratesIOClient {
	c := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "ariane-symbol-recovery (https://github.com/ariane-re/ariane)")
	return &CratesIOClient{client: c}
}

type crateVersionResponse struct {
	Version struct {
		Features map[string][]string `json:"features"`
		DlPath   string              `json:"dl_path"`
	} `json:"version"`
}

// GetVersion resolves a crate's declared feature names and download path.
// A 404 from the registry maps to arianeerr.NonExistentVersion at the
// Rebuilder call site; GetVersion itself just reports the plain error.
func (c *CratesIOClient) GetVersion(name, version string) (VersionInfo, error) {
	url := fmt.Sprintf("https://crates.io/api/v1/crates/%s/%s", name, version)
	resp, err := c.client.R().SetResult(&crateVersionResponse{}).Get(url)
	if err != nil {
		return VersionInfo{}, err
	}
	if resp.IsError() {
		return VersionInfo{}, fmt.Errorf("crates.io: %s %s: %s", name, version, resp.Status())
	}

	body := resp.Result().(*crateVersionResponse)
	features := make([]string, 0, len(body.Version.Features))
	for name := range body.Version.Features {
		features = append(features, name)
	}

	return VersionInfo{
		Features:    features,
		DownloadURL: "https://crates.io" + body.Version.DlPath,
	}, nil
}

// Download fetches the raw bytes at url (the registry's .crate tarball
// location).
func (c *CratesIOClient) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download %s: %s", url, resp.Status())
	}
	return resp.Body(), nil
}
