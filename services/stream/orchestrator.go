package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/pool"

	"scavengarr/config"
	"scavengarr/internal/linkstore"
	"scavengarr/models"
	"scavengarr/services/metadata"
	"scavengarr/services/resolver"
	"scavengarr/services/scrape"
	"scavengarr/utils/queryutil"
)

// TitleResolver is the metadata port, satisfied by metadata.Service.
type TitleResolver interface {
	Resolve(ctx context.Context, req models.StreamRequest) (models.ReferenceTitle, error)
}

// Orchestrator runs the full resolution pipeline for one request: reference
// title, site fan-out, filtering, ranking and the final client stream list.
type Orchestrator struct {
	registry  *scrape.Registry
	governor  *scrape.Governor
	invoker   *scrape.Invoker
	titles    TitleResolver
	filter    *TitleFilter
	scorer    *Scorer
	prober    *Prober
	resolvers *resolver.Registry
	links     *linkstore.Store

	publicBaseURL       string
	resolveAtStreamTime bool
	probeAtStreamTime   bool
	resolveConcurrency  int
}

// NewOrchestrator wires the pipeline from its stages. prober may be nil when
// probing is disabled.
func NewOrchestrator(
	registry *scrape.Registry,
	governor *scrape.Governor,
	invoker *scrape.Invoker,
	titles TitleResolver,
	filter *TitleFilter,
	scorer *Scorer,
	prober *Prober,
	resolvers *resolver.Registry,
	links *linkstore.Store,
	cfg config.Settings,
) *Orchestrator {
	return &Orchestrator{
		registry:            registry,
		governor:            governor,
		invoker:             invoker,
		titles:              titles,
		filter:              filter,
		scorer:              scorer,
		prober:              prober,
		resolvers:           resolvers,
		links:               links,
		publicBaseURL:       strings.TrimRight(cfg.Server.PublicBaseURL, "/"),
		resolveAtStreamTime: cfg.Streaming.ResolveAtStreamTime,
		probeAtStreamTime:   cfg.Probe.ProbeAtStreamTime,
		resolveConcurrency:  4,
	}
}

// Resolve produces the ordered stream list for one request. Failures at any
// stage degrade to fewer (or zero) streams, never to an error the client sees.
func (o *Orchestrator) Resolve(ctx context.Context, req models.StreamRequest) (streams []models.ClientStream) {
	requestID := uuid.NewString()[:8]
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[orchestrator] %s panic: %v", requestID, r)
			streams = nil
		}
		log.Printf("[orchestrator] %s done: %d streams in %s", requestID, len(streams), time.Since(started).Round(time.Millisecond))
	}()

	ref, err := o.titles.Resolve(ctx, req)
	if err != nil {
		if !errors.Is(err, metadata.ErrNotFound) && !errors.Is(err, metadata.ErrBadID) {
			log.Printf("[orchestrator] %s metadata lookup failed: %v", requestID, err)
		}
		return nil
	}

	queries := queryutil.Build(ref.Title)
	if len(queries) == 0 {
		return nil
	}
	log.Printf("[orchestrator] %s resolving %q (%d) queries=%v", requestID, ref.Title, ref.Year, queries)

	results := o.fanOut(ctx, req, ref, queries)
	if len(results) == 0 {
		return nil
	}

	ranked := o.scorer.Rank(o.normalizeAll(results))
	if o.probeAtStreamTime && o.prober != nil {
		ranked = o.prober.Probe(ctx, ranked)
	}

	return o.finalize(ctx, req, ref, ranked)
}

// adapterResults carries one adapter's filtered survivors plus its identity.
type adapterResults struct {
	adapter  string
	language string
	results  []models.RawSearchResult
}

// fanOut queries every stream-providing adapter concurrently under the
// request budget and applies the episode and title filters per adapter. The
// colon-fallback query is only spent when the primary query filters down to
// nothing.
func (o *Orchestrator) fanOut(ctx context.Context, req models.StreamRequest, ref models.ReferenceTitle, queries []string) []adapterResults {
	budget := o.governor.AcquireRequestBudget()
	params := scrape.SearchParams{
		Category: models.CategoryForKind(req.Kind),
		Season:   req.Season,
		Episode:  req.Episode,
	}

	p := pool.NewWithResults[adapterResults]().WithContext(ctx)
	for _, plugin := range o.registry.StreamProviders() {
		plugin := plugin
		p.Go(func(ctx context.Context) (adapterResults, error) {
			out := adapterResults{adapter: plugin.Name(), language: plugin.DefaultLanguage()}
			for _, query := range queries {
				raw, err := o.invoker.Invoke(ctx, plugin, budget, query, params)
				if err != nil {
					continue
				}
				survivors := o.filter.Apply(ref, FilterEpisodes(raw, req.Season, req.Episode))
				if len(survivors) > 0 {
					out.results = survivors
					break
				}
			}
			return out, nil
		})
	}

	collected, err := p.Wait()
	if err != nil {
		log.Printf("[orchestrator] fan-out: %v", err)
	}
	nonEmpty := collected[:0]
	for _, ar := range collected {
		if len(ar.results) > 0 {
			nonEmpty = append(nonEmpty, ar)
		}
	}
	return nonEmpty
}

func (o *Orchestrator) normalizeAll(batches []adapterResults) []models.RankedStream {
	var ranked []models.RankedStream
	for _, batch := range batches {
		for _, result := range batch.results {
			for _, link := range result.Links {
				ranked = append(ranked, Normalize(result, link, batch.adapter, batch.language))
			}
		}
	}
	return ranked
}

// finalize turns ranked embeds into client streams, either by resolving
// them to CDN URLs now or by parking them behind /play ids.
func (o *Orchestrator) finalize(ctx context.Context, req models.StreamRequest, ref models.ReferenceTitle, ranked []models.RankedStream) []models.ClientStream {
	directResolve := o.resolveAtStreamTime && o.resolvers != nil && !o.resolvers.Empty()

	mapper := iter.Mapper[models.RankedStream, *models.ClientStream]{MaxGoroutines: o.resolveConcurrency}
	resolved := mapper.Map(ranked, func(rs *models.RankedStream) *models.ClientStream {
		if !directResolve {
			return o.proxyStream(ctx, req, ref, *rs)
		}
		return o.directStream(ctx, req, ref, *rs)
	})

	streams := make([]models.ClientStream, 0, len(resolved))
	for _, cs := range resolved {
		if cs != nil {
			streams = append(streams, *cs)
		}
	}
	return streams
}

func (o *Orchestrator) directStream(ctx context.Context, req models.StreamRequest, ref models.ReferenceTitle, rs models.RankedStream) *models.ClientStream {
	res, err := o.resolvers.Resolve(ctx, rs.Hoster, rs.URL)
	if err != nil {
		return nil
	}
	cs := o.clientStream(req, ref, rs)
	cs.URL = res.VideoURL
	if len(res.Headers) > 0 {
		cs.BehaviorHints = &models.BehaviorHints{
			NotWebReady:  true,
			ProxyHeaders: map[string]string{"User-Agent": res.Headers["User-Agent"], "Referer": res.Headers["Referer"]},
			BingeGroup:   "scavengarr-" + rs.Hoster,
		}
	}
	return &cs
}

func (o *Orchestrator) proxyStream(ctx context.Context, req models.StreamRequest, ref models.ReferenceTitle, rs models.RankedStream) *models.ClientStream {
	id := o.links.Save(ctx, rs.URL, rs.Title, rs.Hoster)
	cs := o.clientStream(req, ref, rs)
	cs.URL = fmt.Sprintf("%s/play/%s", o.publicBaseURL, id)
	return &cs
}

func (o *Orchestrator) clientStream(req models.StreamRequest, ref models.ReferenceTitle, rs models.RankedStream) models.ClientStream {
	return models.ClientStream{
		DisplayName: FormatDisplayName(req, ref, rs),
		Description: FormatDescription(rs),
	}
}

// FormatDisplayName builds the primary stream label. The reference title
// wins; scraped names are only a fallback. Unknown quality is omitted, never
// rendered as "UNKNOWN".
func FormatDisplayName(req models.StreamRequest, ref models.ReferenceTitle, rs models.RankedStream) string {
	name := ref.Title
	if name == "" {
		name = rs.ReleaseName
	}
	if name == "" {
		name = rs.Title
	}
	if name == "" {
		return rs.Hoster
	}

	var b strings.Builder
	b.WriteString(name)
	if ref.Title != "" && ref.Year > 0 {
		fmt.Fprintf(&b, " (%d)", ref.Year)
	}
	if req.Kind == models.MediaKindSeries && req.Season >= 0 && req.Episode >= 0 {
		fmt.Fprintf(&b, " S%02dE%02d", req.Season, req.Episode)
	}
	if rs.Quality != models.QualityUnknown {
		b.WriteString(" " + rs.Quality.String())
	}
	return b.String()
}

// FormatDescription joins the stream's provenance segments with "|". The
// source adapter always leads when present.
func FormatDescription(rs models.RankedStream) string {
	var segments []string
	if rs.SourceAdapter != "" {
		segments = append(segments, rs.SourceAdapter)
	}
	if rs.Language.Label != "" {
		segments = append(segments, rs.Language.Label)
	}
	if rs.Hoster != "" {
		segments = append(segments, strings.ToUpper(rs.Hoster))
	}
	if rs.SizeLabel != "" {
		segments = append(segments, rs.SizeLabel)
	}
	return strings.Join(segments, " | ")
}
