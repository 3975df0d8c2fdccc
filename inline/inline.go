// Package inline provides the implementation for the application's non-interactive, programmable execution mode.
package inline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
	"github.com/quadview-cli/quadview/internal/cache"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/query"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Run scans the library, narrows the groups down and writes them to options.Out.
func Run(options *Options) error {
	if options.Out == nil {
		options.Out = os.Stdout
	}

	groups, err := cache.Scan(options.Library)
	if err != nil {
		return fmt.Errorf("scan %s: %w", options.Library, err)
	}
	log.Infof("found %s in %s", util.Quantify(len(groups), "group", "groups"), options.Library)

	if options.Query != "" {
		groups = match(groups, options.Query)
		if err := query.Remember(options.Query, 1); err != nil {
			log.Warnf("remember query %q: %s", options.Query, err)
		}
	}

	if filter, ok := options.Filter.Get(); ok {
		if groups, err = filter(groups); err != nil {
			return err
		}
	}

	if options.Json {
		return writeJson(options.Out, groups, options)
	}

	var resumes map[string]*history.Entry
	if options.Resume {
		resumes = savedEntries(options.Library)
	}

	for _, g := range groups {
		for _, p := range g.Positions() {
			fmt.Fprintf(options.Out, "%s\t%s\t%s\n", g.Key, p, g.VideoFile(p))
		}
		if e, ok := resumes[g.Key]; ok {
			fmt.Fprintf(options.Out, "%s\tresume\t%s\n", g.Key, util.FormatMillis(e.PositionMs))
		}
	}

	return nil
}

// match keeps the groups whose key fuzzily matches q, closest first.
func match(groups []*group.Group, q string) []*group.Group {
	ranks := fuzzy.RankFindNormalizedFold(q, lo.Map(groups, func(g *group.Group, _ int) string {
		return g.Key
	}))
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		return a.Distance - b.Distance
	})

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) *group.Group {
		return groups[r.OriginalIndex]
	})
}

// savedEntries indexes the saved progress of a library by group key.
func savedEntries(library string) map[string]*history.Entry {
	saved, err := history.Get()
	if err != nil {
		log.Warnf("load history: %s", err)
		return nil
	}

	library = filepath.Clean(library)
	entries := lo.Filter(lo.Values(saved), func(e *history.Entry, _ int) bool {
		return filepath.Clean(e.Library) == library
	})
	return lo.KeyBy(entries, func(e *history.Entry) string { return e.Key })
}
