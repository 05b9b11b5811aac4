package resilientgraphql

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/opengovern/resilient-graphql/internal/metrics"
)

// PaginationOptions configures a Pager. The zero value follows the default
// variable of the direction with DefaultTreeSearch.
type PaginationOptions struct {
	VariableName string  // Defaults to "after" or "before"
	Locator      Locator // Defaults to DefaultTreeSearch

	// MaxPages stops after that many pages; 0 means no limit.
	MaxPages int

	// Checkpoint, when set, persists every next cursor under CheckpointKey and
	// resumes from a stored one. The key is cleared when the last page is reached.
	Checkpoint    CursorStore
	CheckpointKey string
}

// Pager drives cursor pagination over a Client, one request at a time.
type Pager struct {
	client    *Client
	direction Direction
	opts      PaginationOptions
}

func newPager(c *Client, direction Direction, opts *PaginationOptions) *Pager {
	p := &Pager{client: c, direction: direction}
	if opts != nil {
		p.opts = *opts
	}
	if p.opts.VariableName == "" {
		p.opts.VariableName = direction.DefaultVariable()
	}
	if p.opts.Locator == nil {
		p.opts.Locator = DefaultTreeSearch()
	}
	return p
}

// VariableName is the query variable the cursor is bound to.
func (p *Pager) VariableName() string { return p.opts.VariableName }

// Execute fetches pages until no further cursor is found, calling onPage
// for each response in fetch order. onPage may return ErrStopPagination to
// end early; any other error aborts and is returned. The variables map is
// never modified.
func (p *Pager) Execute(ctx context.Context, query string, variables map[string]any, onPage func(page map[string]any) error) error {
	if onPage == nil {
		return argumentErrorf("page callback must not be nil")
	}
	if strings.TrimSpace(query) == "" {
		return argumentErrorf("query must not be empty")
	}
	name := p.opts.VariableName
	if !declaresVariable(query, name) {
		return argumentErrorf("query does not declare the pagination variable %q (expected $%s: <Type>)", name, name)
	}
	if p.opts.Checkpoint != nil && p.opts.CheckpointKey == "" {
		return argumentErrorf("checkpoint store requires a checkpoint key")
	}

	vars := copyVariables(variables)
	prev, hasPrev := vars[name].(string)
	hasPrev = hasPrev && prev != ""

	if store := p.opts.Checkpoint; store != nil {
		cursor, ok, err := store.Load(ctx, p.opts.CheckpointKey)
		if err != nil {
			return fmt.Errorf("load checkpoint %q: %w", p.opts.CheckpointKey, err)
		}
		if ok {
			p.client.debugf("pager: resuming %q from cursor %q", p.opts.CheckpointKey, cursor)
			vars[name] = cursor
			prev, hasPrev = cursor, true
		}
	}

	for page := 1; ; page++ {
		resp, err := p.client.Execute(ctx, query, vars)
		if err != nil {
			return err
		}
		metrics.PagesTotal.Inc()

		if err := onPage(resp); err != nil {
			if errors.Is(err, ErrStopPagination) {
				return nil
			}
			return err
		}

		pageInfo, err := p.opts.Locator.locate(resp, p.direction)
		if err != nil {
			return err
		}
		cursor, ok := extractCursor(pageInfo, p.direction)
		if !ok {
			p.client.debugf("pager: no further cursor after page %d", page)
			return p.clearCheckpoint(ctx)
		}
		if hasPrev && cursor == prev {
			return fmt.Errorf("%w: server returned %q again", ErrCursorNotAdvancing, cursor)
		}
		p.client.debugf("pager: page %d fetched, next cursor %q", page, cursor)

		if store := p.opts.Checkpoint; store != nil {
			if err := store.Save(ctx, p.opts.CheckpointKey, cursor); err != nil {
				return fmt.Errorf("save checkpoint %q: %w", p.opts.CheckpointKey, err)
			}
		}
		if p.opts.MaxPages > 0 && page >= p.opts.MaxPages {
			return nil
		}

		next := copyVariables(vars)
		next[name] = cursor
		vars = next
		prev, hasPrev = cursor, true
	}
}

func (p *Pager) clearCheckpoint(ctx context.Context) error {
	store := p.opts.Checkpoint
	if store == nil {
		return nil
	}
	if err := store.Clear(ctx, p.opts.CheckpointKey); err != nil {
		return fmt.Errorf("clear checkpoint %q: %w", p.opts.CheckpointKey, err)
	}
	return nil
}

// declaresVariable reports whether query contains "$name:" (whitespace
// before the colon allowed).
func declaresVariable(query, name string) bool {
	re := regexp.MustCompile(`\$` + regexp.QuoteMeta(name) + `\s*:`)
	return re.MatchString(query)
}

func copyVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	return out
}
