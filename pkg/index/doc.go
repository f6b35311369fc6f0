// Package index talks to Python package indexes.
//
// # Overview
//
// Two index APIs are supported:
//
//   - The simple repository JSON API (PEP 691), which lists every file of a
//     project with its hashes, requires-python and whether core metadata is
//     served separately (PEP 658/714). See [ParseProject].
//   - The legacy PyPI JSON API, which exposes per-release metadata such as
//     requires_dist. See [ParseRelease].
//
// [Client] performs the HTTP requests. Transient failures (network errors
// and 5xx responses) are retried with backoff; 404 maps to [ErrNotFound].
//
// # Usage
//
//	c := index.NewClient(nil)
//	data, err := c.Fetch(ctx, index.ProjectURL("https://pypi.org/simple", "requests"), index.SimpleJSONHeaders)
//	if err != nil {
//	    return err
//	}
//	project, err := index.ParseProject(data, "https://pypi.org/simple/requests/")
//
// All types are safe for concurrent reads after construction.
package index
