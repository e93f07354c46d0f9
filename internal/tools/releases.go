package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	defaultGitHubAPI = "https://api.github.com"
	// GitHubAPIEnv overrides the releases API base URL.
	GitHubAPIEnv = "BAFB_GITHUB_API"
	// GitHubTokenEnv is sent as a bearer token when set.
	GitHubTokenEnv = "GITHUB_TOKEN"
)

var ErrNoAsset = errors.New("no matching release asset")

// latestAssetURL queries the latest release of repo and returns the download
// URL of the first asset whose name contains suffix.
func (f *Fetcher) latestAssetURL(ctx context.Context, repo, suffix string) (string, error) {
	endpoint := strings.TrimRight(f.apiBase(), "/") + "/repos/" + repo + "/releases/latest"
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if f.Token != "" {
		headers["Authorization"] = "Bearer " + f.Token
	}

	body, err := f.Downloader.Fetch(ctx, endpoint, headers)
	if err != nil {
		return "", fmt.Errorf("query latest release of %s: %w", repo, err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("query latest release of %s: invalid JSON response", repo)
	}

	release := gjson.ParseBytes(body)
	tag := release.Get("tag_name").String()

	var found string
	release.Get("assets").ForEach(func(_, asset gjson.Result) bool {
		if strings.Contains(asset.Get("name").String(), suffix) {
			found = asset.Get("browser_download_url").String()
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("%w: %s release %s has no asset containing %q", ErrNoAsset, repo, tag, suffix)
	}
	f.logger().Debug("resolved release asset", "repo", repo, "tag", tag, "url", found)
	return found, nil
}

func (f *Fetcher) apiBase() string {
	if f.APIBase != "" {
		return f.APIBase
	}
	return defaultGitHubAPI
}
