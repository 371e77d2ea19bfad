package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"

	"github.com/qobs-build/juce2cmake/internal/msg"
)

var sourceShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var (
	errIllegalSource = errors.New("empty or illegal fetch source")
	errAlreadyExists = errors.New("destination already exists")
)

// expandSource turns a fetch source such as gh:juce-framework/JUCE@develop#7.0.12
// into a full git URL, keeping the @branch and #revision suffixes.
func expandSource(source string) (string, error) {
	if source == "" {
		return "", errIllegalSource
	}

	// check for `git:` prefix, e.g. git:https://example.com/JUCE.git
	if strings.HasPrefix(source, gitPrefix) {
		return source[len(gitPrefix):], nil
	}

	for shortcut, url := range sourceShortcuts {
		if strings.HasPrefix(source, shortcut) {
			return url + source[len(shortcut):], nil
		}
	}

	if strings.Contains(source, "://") {
		return source, nil
	}
	return "", fmt.Errorf("%w: %q", errIllegalSource, source)
}

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// juce-framework/JUCE@master#7.0.12
// juce-framework/JUCE@develop#12345abc
// juce-framework/JUCE#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	parts := strings.SplitN(rawURL, "#", 2)
	baseURL := parts[0]
	if len(parts) == 2 {
		res.commitOrTag = parts[1]
	}

	// the host part may carry user@, only look for a branch after the path starts
	schemeEnd := 0
	if i := strings.Index(baseURL, "://"); i >= 0 {
		schemeEnd = i + 3
		if j := strings.IndexByte(baseURL[schemeEnd:], '/'); j >= 0 {
			schemeEnd += j
		}
	} else if i := strings.IndexByte(baseURL, ':'); i >= 0 {
		schemeEnd = i // git@github.com:owner/repo
	}
	res.cleanURL = baseURL
	if i := strings.LastIndexByte(baseURL[schemeEnd:], '@'); i >= 0 {
		res.cleanURL = baseURL[:schemeEnd+i]
		res.branch = baseURL[schemeEnd+i+1:]
	}

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}

	return
}

// FetchJUCE clones source into toWhere. It refuses to touch an existing
// directory.
func FetchJUCE(source, toWhere string, progress io.Writer) error {
	if _, err := os.Stat(toWhere); err == nil {
		return fmt.Errorf("%w: %s", errAlreadyExists, toWhere)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	url, err := expandSource(source)
	if err != nil {
		return err
	}
	return cloneGitRepo(url, toWhere, progress)
}

// cloneGitRepo clones a Git remote into the specified directory
func cloneGitRepo(url, toWhere string, progress io.Writer) error {
	parsedURL := parseGitURL(url)

	cloneOptions := &git.CloneOptions{
		URL:      parsedURL.cleanURL,
		Progress: progress,
	}

	if parsedURL.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if parsedURL.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(parsedURL.branch)
		cloneOptions.SingleBranch = true
	}

	msg.Step("Fetching", "%s", parsedURL.cleanURL)
	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return err
	}

	if parsedURL.commitOrTag != "" {
		w, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("could not get worktree: %w", err)
		}

		revision := parsedURL.commitOrTag
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
		}

		err = w.Checkout(&git.CheckoutOptions{
			Hash:  *hash,
			Force: true,
		})
		if err != nil {
			return fmt.Errorf("failed to checkout `%s`: %w", revision, err)
		}
	}

	return nil
}
