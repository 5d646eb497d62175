package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rhuss/packagefeed/pkg/api"
)

// Import reads a JSON array of packages from r and stores each one in repo.
// It stops at the first package that cannot be stored and reports how many
// were stored before it.
func Import(ctx context.Context, repo PackageRepository, r io.Reader) (int, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("reading package list: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, fmt.Errorf("package list must be a JSON array")
	}

	n := 0
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		var p api.Package
		if err := dec.Decode(&p); err != nil {
			return n, fmt.Errorf("decoding package %d: %w", n, err)
		}
		if err := repo.Put(ctx, &p); err != nil {
			return n, fmt.Errorf("storing %s %s: %w", p.ID, p.Version, err)
		}
		n++
	}
	if _, err := dec.Token(); err != nil {
		return n, fmt.Errorf("reading package list: %w", err)
	}
	return n, nil
}
