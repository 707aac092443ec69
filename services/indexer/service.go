// Package indexer aggregates site search results into a flat feed for
// Torznab clients. It reuses the scrape fan-out but skips the stream
// pipeline: *arr clients want releases, not playable URLs.
package indexer

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"scavengarr/models"
	"scavengarr/services/scrape"
	"scavengarr/services/stream"
	"scavengarr/utils/queryutil"
)

// SearchOptions are the recognized Torznab query parameters.
type SearchOptions struct {
	Query    string
	IMDbID   string
	Category int // 0 = any
	Season   int // -1 = unset
	Episode  int // -1 = unset
	Limit    int
}

// Item is one feed entry.
type Item struct {
	Title     string
	Link      string
	Category  int
	SizeBytes int64
	Source    string
	Published time.Time
}

// Service runs indexer searches over the registered site plugins.
type Service struct {
	registry *scrape.Registry
	governor *scrape.Governor
	invoker  *scrape.Invoker
	titles   stream.TitleResolver
}

func NewService(registry *scrape.Registry, governor *scrape.Governor, invoker *scrape.Invoker, titles stream.TitleResolver) *Service {
	return &Service{registry: registry, governor: governor, invoker: invoker, titles: titles}
}

// Search fans the query out to every enabled plugin and flattens the
// responses. An error is returned only when nothing was found AND at least
// one upstream failed, so callers can distinguish "empty" from "broken".
func (s *Service) Search(ctx context.Context, opts SearchOptions) ([]Item, error) {
	query := strings.TrimSpace(opts.Query)
	if opts.IMDbID != "" {
		ref, err := s.titles.Resolve(ctx, models.NewStreamRequest(opts.IMDbID, kindForOptions(opts)))
		if err == nil && ref.Title != "" {
			query = ref.Title
		}
	}
	if query == "" {
		return nil, nil
	}
	queries := queryutil.Build(query)

	budget := s.governor.AcquireRequestBudget()
	params := scrape.SearchParams{Category: opts.Category, Season: opts.Season, Episode: opts.Episode}

	type batch struct {
		plugin  string
		results []models.RawSearchResult
		err     error
	}
	p := pool.NewWithResults[batch]().WithContext(ctx)
	for _, plugin := range s.registry.All() {
		plugin := plugin
		p.Go(func(ctx context.Context) (batch, error) {
			for _, q := range queries {
				results, err := s.invoker.Invoke(ctx, plugin, budget, q, params)
				if err != nil {
					return batch{plugin: plugin.Name(), err: err}, nil
				}
				if len(results) > 0 {
					return batch{plugin: plugin.Name(), results: results}, nil
				}
			}
			return batch{plugin: plugin.Name()}, nil
		})
	}
	collected, _ := p.Wait()

	var items []Item
	var upstreamErrs []error
	now := time.Now()
	for _, b := range collected {
		if b.err != nil {
			upstreamErrs = append(upstreamErrs, b.err)
			continue
		}
		results := stream.FilterEpisodes(b.results, opts.Season, opts.Episode)
		for _, result := range results {
			if opts.Category > 0 && !categoryMatches(result.Category, opts.Category) {
				continue
			}
			items = append(items, Item{
				Title:     result.Title,
				Link:      result.PrimaryLink,
				Category:  result.Category,
				SizeBytes: result.SizeBytes,
				Source:    b.plugin,
				Published: now,
			})
		}
	}

	if len(items) == 0 && len(upstreamErrs) > 0 {
		return nil, errors.Join(upstreamErrs...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Source != items[j].Source {
			return items[i].Source < items[j].Source
		}
		return items[i].Title < items[j].Title
	})
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	log.Printf("[indexer] q=%q imdbid=%q -> %d items", opts.Query, opts.IMDbID, len(items))
	return items, nil
}

func kindForOptions(opts SearchOptions) models.MediaKind {
	if opts.Season >= 0 || opts.Episode >= 0 || models.IsTVCategory(opts.Category) {
		return models.MediaKindSeries
	}
	return models.MediaKindMovie
}

// categoryMatches treats a requested top-level category as covering its
// whole thousand-block.
func categoryMatches(itemCat, wantCat int) bool {
	if itemCat == wantCat {
		return true
	}
	return itemCat/1000 == wantCat/1000
}
