// Copyright 2026 The SBEnv Authors
// SPDX-License-Identifier: Apache-2.0

package binaries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/openmined/sbenv/lib/netutil"
)

// ErrNotFound marks a release tag or download URL that the server
// reported missing. Callers use it to distinguish "try the next
// candidate" from a hard transport failure.
var ErrNotFound = errors.New("not found")

// Release is one published release of the daemon.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// ReleaseClient fetches release metadata and downloads release files.
// The GitHub implementation is the only production one; tests inject
// fakes to script responses and observe whether the network was
// touched at all.
type ReleaseClient interface {
	// Release fetches the release published under the exact tag.
	// Returns an error wrapping ErrNotFound if no such release exists.
	Release(ctx context.Context, tag string) (*Release, error)

	// Download streams the file at url to the destination path.
	// Returns an error wrapping ErrNotFound on a 404 so callers can
	// move on to the next candidate filename.
	Download(ctx context.Context, url, destination string) error

	// AssetURL builds the conventional download URL for a file
	// attached to the release with the given tag.
	AssetURL(tag, filename string) string
}

// defaultAPIBase is the public GitHub REST API root.
const defaultAPIBase = "https://api.github.com"

// defaultDownloadBase hosts release asset downloads, which live on
// the web origin rather than the API origin.
const defaultDownloadBase = "https://github.com"

// GitHubConfig configures a GitHubClient. Owner and Repo are
// required; everything else has working defaults.
type GitHubConfig struct {
	// APIBase is the REST API root. Defaults to the public API.
	APIBase string

	// DownloadBase is the origin serving release asset downloads.
	// Defaults to the public web origin.
	DownloadBase string

	// Owner and Repo identify the repository publishing releases.
	Owner string
	Repo  string

	// HTTPClient is used for all requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// GitHubClient fetches releases from a GitHub repository. Releases
// are public, so no authentication is configured; unauthenticated
// rate limits are generous enough for occasional installs.
type GitHubClient struct {
	apiBase      string
	downloadBase string
	owner        string
	repo         string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewGitHubClient creates a release client from the configuration.
func NewGitHubClient(config GitHubConfig) (*GitHubClient, error) {
	if config.Owner == "" || config.Repo == "" {
		return nil, fmt.Errorf("release client: owner and repo are required")
	}
	apiBase := config.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	downloadBase := config.DownloadBase
	if downloadBase == "" {
		downloadBase = defaultDownloadBase
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GitHubClient{
		apiBase:      strings.TrimRight(apiBase, "/"),
		downloadBase: strings.TrimRight(downloadBase, "/"),
		owner:        config.Owner,
		repo:         config.Repo,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// Release fetches release metadata for the exact tag.
func (client *GitHubClient) Release(ctx context.Context, tag string) (*Release, error) {
	requestURL := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		client.apiBase, client.owner, client.repo, url.PathEscape(tag))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("release %s: creating request: %w", tag, err)
	}
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("release %s: %w", tag, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		netutil.Drain(response.Body)
		return nil, fmt.Errorf("release %s/%s tag %s: %w",
			client.owner, client.repo, tag, ErrNotFound)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release %s: unexpected status %d: %s",
			tag, response.StatusCode, netutil.ErrorBody(response.Body))
	}

	var release Release
	if err := netutil.DecodeResponse(response.Body, &release); err != nil {
		return nil, fmt.Errorf("release %s: decoding response: %w", tag, err)
	}
	client.logger.Debug("fetched release metadata",
		"tag", release.TagName,
		"assets", len(release.Assets),
	)
	return &release, nil
}

// Download streams the file at url into destination. The destination
// file is created with mode 0644; a partial file is removed on error.
func (client *GitHubClient) Download(ctx context.Context, downloadURL, destination string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("download %s: creating request: %w", downloadURL, err)
	}
	request.Header.Set("Accept", "application/octet-stream")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("download %s: %w", downloadURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		netutil.Drain(response.Body)
		return fmt.Errorf("download %s: %w", downloadURL, ErrNotFound)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d: %s",
			downloadURL, response.StatusCode, netutil.ErrorBody(response.Body))
	}

	file, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("download %s: creating %s: %w", downloadURL, destination, err)
	}
	written, err := io.Copy(file, response.Body)
	if err != nil {
		file.Close()
		os.Remove(destination)
		return fmt.Errorf("download %s: writing %s: %w", downloadURL, destination, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(destination)
		return fmt.Errorf("download %s: closing %s: %w", downloadURL, destination, err)
	}
	client.logger.Debug("downloaded release file",
		"url", downloadURL,
		"bytes", written,
	)
	return nil
}

// AssetURL builds the conventional public download URL for a named
// file under the release with the given tag.
func (client *GitHubClient) AssetURL(tag, filename string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/%s/%s",
		client.downloadBase, client.owner, client.repo,
		url.PathEscape(tag), url.PathEscape(filename))
}
