package merge

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/google/go-github/v68/github"

	"github.com/ralphctl/ralphctl/internal/vcs"
)

// sshOrHTTPSRemote matches both git@github.com:owner/repo.git and
// https://github.com/owner/repo.git remote URL forms.
var sshOrHTTPSRemote = regexp.MustCompile(`github\.com[:/]([^/]+)/([^/]+?)(\.git)?$`)

// GitHubPROpener opens pull requests against a GitHub-hosted remote using
// a personal access token from the GITHUB_TOKEN environment variable.
type GitHubPROpener struct {
	Driver *vcs.Driver
	Remote string
	Base   string
}

// OpenPullRequest implements PullRequestOpener.
func (o GitHubPROpener) OpenPullRequest(ctx context.Context, branch, title, body string) (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("merge: GITHUB_TOKEN is not set, cannot open pull request")
	}

	remoteURL, err := o.Driver.RemoteURL(o.Remote)
	if err != nil {
		return "", err
	}
	owner, repo, err := parseOwnerRepo(remoteURL)
	if err != nil {
		return "", err
	}

	client := github.NewClient(&http.Client{}).WithAuthToken(token)

	base := o.Base
	if base == "" {
		base = "main"
	}

	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Head:  github.Ptr(branch),
		Base:  github.Ptr(base),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return "", fmt.Errorf("merge: opening pull request for %s: %w", branch, err)
	}
	return pr.GetHTMLURL(), nil
}

func parseOwnerRepo(remoteURL string) (owner, repo string, err error) {
	m := sshOrHTTPSRemote.FindStringSubmatch(remoteURL)
	if m == nil {
		return "", "", fmt.Errorf("merge: could not parse owner/repo from remote %q", remoteURL)
	}
	return m[1], m[2], nil
}
