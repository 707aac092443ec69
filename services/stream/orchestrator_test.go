package stream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scavengarr/config"
	"scavengarr/internal/cache"
	"scavengarr/internal/linkstore"
	"scavengarr/models"
	"scavengarr/services/metadata"
	"scavengarr/services/resolver"
	"scavengarr/services/scrape"
)

// scriptedPlugin answers queries from a canned table.
type scriptedPlugin struct {
	name      string
	kind      scrape.Kind
	responses map[string][]models.RawSearchResult
	err       error
}

func (p *scriptedPlugin) Name() string              { return p.name }
func (p *scriptedPlugin) Provides() scrape.Provides { return scrape.ProvidesStream }
func (p *scriptedPlugin) Kind() scrape.Kind         { return p.kind }
func (p *scriptedPlugin) DefaultLanguage() string   { return "de" }
func (p *scriptedPlugin) CacheTTL() time.Duration   { return 0 }

func (p *scriptedPlugin) Search(_ context.Context, query string, _ scrape.SearchParams) ([]models.RawSearchResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.responses[query], nil
}

type fixedTitles struct {
	ref models.ReferenceTitle
	err error
}

func (f fixedTitles) Resolve(context.Context, models.StreamRequest) (models.ReferenceTitle, error) {
	return f.ref, f.err
}

func testSettings() config.Settings {
	s := config.DefaultSettings()
	s.Server.PublicBaseURL = "http://addon.example"
	s.Streaming.ResolveAtStreamTime = true
	s.Probe.ProbeAtStreamTime = false
	return s
}

func buildOrchestrator(t *testing.T, titles TitleResolver, resolvers *resolver.Registry, cfg config.Settings, plugins ...scrape.Plugin) (*Orchestrator, *linkstore.Store) {
	t.Helper()
	mem := cache.NewMemory(time.Hour)
	links := linkstore.New(mem, time.Hour)
	invoker := scrape.NewInvoker(
		scrape.NewBreakerRegistry(5, time.Minute),
		5*time.Second,
		50,
		scrape.NewSearchCache(mem, time.Minute),
	)
	return NewOrchestrator(
		scrape.NewRegistry(plugins...),
		scrape.NewGovernor(4, 2),
		invoker,
		titles,
		NewTitleFilter(cfg.TitleMatch),
		NewScorer(cfg.Scoring),
		nil,
		resolvers,
		links,
		cfg,
	), links
}

func hlsResolver(videoURL string) resolver.ResolveFunc {
	return func(context.Context, string) (models.ResolvedStream, error) {
		return models.ResolvedStream{VideoURL: videoURL, IsHLS: true, Headers: map[string]string{"Referer": "https://voe.sx"}}, nil
	}
}

func TestResolveMovieSingleAdapterSingleHoster(t *testing.T) {
	plugin := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Iron Man": {{
				Title:       "Iron Man (2008) 1080p",
				PrimaryLink: "https://voe.sx/e/abc",
				Links:       []models.HosterLink{{HosterName: "voe.sx", URL: "https://voe.sx/e/abc"}},
			}},
		},
	}
	resolvers := resolver.NewRegistry()
	resolvers.Register("voe", hlsResolver("https://cdn.example/master.m3u8"))

	o, _ := buildOrchestrator(t, fixedTitles{ref: models.ReferenceTitle{Title: "Iron Man", Year: 2008, Kind: models.MediaKindMovie}}, resolvers, testSettings(), plugin)

	streams := o.Resolve(context.Background(), models.NewStreamRequest("tt0371746", models.MediaKindMovie))
	require.Len(t, streams, 1)
	require.Equal(t, "Iron Man (2008) HD 1080P", streams[0].DisplayName)
	require.True(t, strings.HasPrefix(streams[0].Description, "megakino"), "description %q", streams[0].Description)
	require.Contains(t, streams[0].Description, "VOE")
	require.Equal(t, "https://cdn.example/master.m3u8", streams[0].URL)
	require.NotNil(t, streams[0].BehaviorHints)
	require.True(t, streams[0].BehaviorHints.NotWebReady)
}

func TestResolveMissingMetadataIsEmptyNotError(t *testing.T) {
	o, _ := buildOrchestrator(t, fixedTitles{err: metadata.ErrNotFound}, resolver.NewRegistry(), testSettings())
	streams := o.Resolve(context.Background(), models.NewStreamRequest("tt0000000", models.MediaKindMovie))
	require.Empty(t, streams)
}

func TestResolveFallbackQueryAfterFilteredPrimary(t *testing.T) {
	// The full title yields nothing, the pre-colon fallback hits.
	plugin := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Mission Impossible - Fallout": nil,
			"Mission": {{
				Title:       "Mission Impossible Fallout (2018)",
				PrimaryLink: "https://voe.sx/e/mi6",
				Links:       []models.HosterLink{{HosterName: "voe", URL: "https://voe.sx/e/mi6"}},
			}},
		},
	}
	resolvers := resolver.NewRegistry()
	resolvers.Register("voe", hlsResolver("https://cdn.example/mi6.m3u8"))

	ref := models.ReferenceTitle{Title: "Mission: Impossible - Fallout", Year: 2018, Kind: models.MediaKindMovie}
	o, _ := buildOrchestrator(t, fixedTitles{ref: ref}, resolvers, testSettings(), plugin)

	streams := o.Resolve(context.Background(), models.NewStreamRequest("tt4912910", models.MediaKindMovie))
	require.Len(t, streams, 1)
}

func TestResolveEchoedEmbedIsDropped(t *testing.T) {
	plugin := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Iron Man": {{
				Title:       "Iron Man",
				PrimaryLink: "https://voe.sx/e/abc",
				Links:       []models.HosterLink{{HosterName: "voe", URL: "https://voe.sx/e/abc"}},
			}},
		},
	}
	resolvers := resolver.NewRegistry()
	resolvers.Register("voe", func(_ context.Context, embedURL string) (models.ResolvedStream, error) {
		return models.ResolvedStream{VideoURL: embedURL}, nil
	})

	o, _ := buildOrchestrator(t, fixedTitles{ref: models.ReferenceTitle{Title: "Iron Man", Year: 2008, Kind: models.MediaKindMovie}}, resolvers, testSettings(), plugin)
	streams := o.Resolve(context.Background(), models.NewStreamRequest("tt0371746", models.MediaKindMovie))
	require.Empty(t, streams)
}

func TestResolveProxyModeWhenNoResolvers(t *testing.T) {
	plugin := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Iron Man": {{
				Title:       "Iron Man",
				PrimaryLink: "https://voe.sx/e/abc",
				Links:       []models.HosterLink{{HosterName: "voe", URL: "https://voe.sx/e/abc"}},
			}},
		},
	}

	o, links := buildOrchestrator(t, fixedTitles{ref: models.ReferenceTitle{Title: "Iron Man", Year: 2008, Kind: models.MediaKindMovie}}, resolver.NewRegistry(), testSettings(), plugin)
	streams := o.Resolve(context.Background(), models.NewStreamRequest("tt0371746", models.MediaKindMovie))
	require.Len(t, streams, 1)

	id := linkstore.OpaqueID("https://voe.sx/e/abc")
	require.Equal(t, "http://addon.example/play/"+id, streams[0].URL)

	saved, ok := links.Lookup(context.Background(), id)
	require.True(t, ok)
	require.Equal(t, "https://voe.sx/e/abc", saved.EmbedURL)
	require.Equal(t, "voe", saved.Hoster)
}

func TestResolveAdapterFailureDoesNotSinkOthers(t *testing.T) {
	broken := &scriptedPlugin{name: "filmpalast", kind: scrape.KindCheap, err: errors.New("site down")}
	working := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Iron Man": {{
				Title:       "Iron Man",
				PrimaryLink: "https://voe.sx/e/abc",
				Links:       []models.HosterLink{{HosterName: "voe", URL: "https://voe.sx/e/abc"}},
			}},
		},
	}
	resolvers := resolver.NewRegistry()
	resolvers.Register("voe", hlsResolver("https://cdn.example/master.m3u8"))

	o, _ := buildOrchestrator(t, fixedTitles{ref: models.ReferenceTitle{Title: "Iron Man", Year: 2008, Kind: models.MediaKindMovie}}, resolvers, testSettings(), broken, working)
	streams := o.Resolve(context.Background(), models.NewStreamRequest("tt0371746", models.MediaKindMovie))
	require.Len(t, streams, 1)
}

func TestResolveSeriesNarrowsToEpisodeAndFormatsName(t *testing.T) {
	plugin := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Dark": {{
				Title:       "Dark",
				PrimaryLink: "https://voe.sx/e/s1e1",
				Links: []models.HosterLink{
					{HosterName: "voe", URL: "https://voe.sx/e/s1e1", Label: "1x1"},
					{HosterName: "voe", URL: "https://voe.sx/e/s1e5", Label: "1x5"},
					{HosterName: "doodstream", URL: "https://doodstream.com/e/s1e5", Label: "S01E05"},
				},
			}},
		},
	}
	resolvers := resolver.NewRegistry()
	resolvers.Register("voe", hlsResolver("https://cdn.example/a.m3u8"))
	resolvers.Register("doodstream", hlsResolver("https://cdn.example/b.m3u8"))

	ref := models.ReferenceTitle{Title: "Dark", Year: 2017, Kind: models.MediaKindSeries}
	o, _ := buildOrchestrator(t, fixedTitles{ref: ref}, resolvers, testSettings(), plugin)

	req := models.NewStreamRequest("tt5753856", models.MediaKindSeries)
	req.Season = 1
	req.Episode = 5

	streams := o.Resolve(context.Background(), req)
	require.Len(t, streams, 2)
	for _, cs := range streams {
		require.Contains(t, cs.DisplayName, "Dark (2017) S01E05")
	}
}

func TestResolveDeterministicOrdering(t *testing.T) {
	plugin := &scriptedPlugin{
		name: "megakino",
		kind: scrape.KindCheap,
		responses: map[string][]models.RawSearchResult{
			"Iron Man": {{
				Title:       "Iron Man",
				PrimaryLink: "https://streamtape.com/e/b",
				Links: []models.HosterLink{
					{HosterName: "streamtape", URL: "https://streamtape.com/e/b"},
					{HosterName: "voe", URL: "https://voe.sx/e/a"},
				},
			}},
		},
	}

	ref := models.ReferenceTitle{Title: "Iron Man", Year: 2008, Kind: models.MediaKindMovie}
	o, _ := buildOrchestrator(t, fixedTitles{ref: ref}, resolver.NewRegistry(), testSettings(), plugin)
	req := models.NewStreamRequest("tt0371746", models.MediaKindMovie)

	first := o.Resolve(context.Background(), req)
	second := o.Resolve(context.Background(), req)
	require.Equal(t, first, second)
	require.Len(t, first, 2)
	// voe outscores streamtape in the default tables
	require.Contains(t, first[0].Description, "VOE")
}
