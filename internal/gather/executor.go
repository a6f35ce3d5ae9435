// Package gather resolves intent facets into text context blocks. Each
// facet picks one of three paths: embedding search with hybrid re-ranking,
// gated model-generated SQL, or a templated warehouse query. The aggregator
// fans facets out concurrently and joins the blocks in facet order.
package gather

import (
	"context"
	"strings"

	"github.com/inboxpulse/insight-engine/internal/embedding"
	"github.com/inboxpulse/insight-engine/internal/intent"
	"github.com/inboxpulse/insight-engine/internal/observability"
	"github.com/inboxpulse/insight-engine/internal/ranking"
	"github.com/inboxpulse/insight-engine/internal/sqlgate"
	"github.com/inboxpulse/insight-engine/internal/storage"
)

// FallbackParagraph is the context used when no facet produced data. The
// answer model still gets something grounded to work with.
const FallbackParagraph = "Based on our email marketing database, here are some general insights about successful subject lines:\n" +
	"- Keep subject lines under 50 characters\n" +
	"- Use action-oriented language\n" +
	"- Create urgency without being spammy\n" +
	"- Personalize when possible\n" +
	"- Test different approaches"

// searchFloor is the similarity cutoff for the initial vector fetch. It
// sits well below the ranker's retention threshold so candidates that
// survive on keyword overlap alone are not lost before ranking.
const searchFloor = 0.05

// Store is the warehouse surface the executor needs.
type Store interface {
	FindSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]storage.SimilarSubjectLine, error)
	SearchByKeyword(ctx context.Context, term string, limit int) ([]storage.SubjectLine, error)
	TopPerforming(ctx context.Context, f storage.SubjectLineFilter) ([]storage.SubjectLine, error)
	SpendByCompanies(ctx context.Context, f storage.SpendFilter) ([]storage.SpendRow, error)
	Execute(ctx context.Context, query string) ([]storage.Row, error)
}

// RepoStore adapts storage.Repositories to the Store interface.
type RepoStore struct {
	Repos *storage.Repositories
}

func (s RepoStore) FindSimilar(ctx context.Context, emb []float32, threshold float64, limit int) ([]storage.SimilarSubjectLine, error) {
	return s.Repos.SubjectLines.FindSimilar(ctx, emb, threshold, limit)
}

func (s RepoStore) SearchByKeyword(ctx context.Context, term string, limit int) ([]storage.SubjectLine, error) {
	return s.Repos.SubjectLines.SearchByKeyword(ctx, term, limit)
}

func (s RepoStore) TopPerforming(ctx context.Context, f storage.SubjectLineFilter) ([]storage.SubjectLine, error) {
	return s.Repos.SubjectLines.TopPerforming(ctx, f)
}

func (s RepoStore) SpendByCompanies(ctx context.Context, f storage.SpendFilter) ([]storage.SpendRow, error) {
	return s.Repos.Spend.ByCompanies(ctx, f)
}

func (s RepoStore) Execute(ctx context.Context, query string) ([]storage.Row, error) {
	return s.Repos.Execute(ctx, query)
}

var _ Store = (*RepoStore)(nil)

// Executor resolves a single facet into a context block.
type Executor struct {
	store    Store
	embedder embedding.Embedder
	rankCfg  ranking.Config
	log      *observability.Logger
}

// NewExecutor creates a facet executor.
func NewExecutor(store Store, embedder embedding.Embedder, rankCfg ranking.Config, log *observability.Logger) *Executor {
	if log == nil {
		log = observability.DefaultLogger()
	}
	return &Executor{
		store:    store,
		embedder: embedder,
		rankCfg:  rankCfg,
		log:      log.WithComponent("gather"),
	}
}

// Resolve turns one facet into a text block. Failures along any path
// degrade to the next path and finally to an empty block; Resolve never
// panics the caller and never returns an error.
func (e *Executor) Resolve(ctx context.Context, f intent.Facet) string {
	switch {
	case f.AnchorText != "":
		return e.resolveAnchor(ctx, f)
	case f.GeneratedSQL != "":
		return e.resolveSQL(ctx, f)
	default:
		return e.resolveTemplate(ctx, f)
	}
}

// resolveAnchor: embed the anchor, vector search, hybrid re-rank, then fall
// back to keyword search and finally the canned paragraph. This path always
// produces a non-empty block.
func (e *Executor) resolveAnchor(ctx context.Context, f intent.Facet) string {
	anchor := f.AnchorText

	emb, err := e.embedder.EmbedSingle(ctx, anchor)
	if err != nil {
		e.log.Warn().Err(err).Msg("embedding failed, using keyword search")
		return e.keywordFallback(ctx, anchor)
	}

	fetchLimit := e.rankCfg.MaxResults * 3
	if fetchLimit <= 0 {
		fetchLimit = 30
	}

	similar, err := e.store.FindSimilar(ctx, emb, searchFloor, fetchLimit)
	if err != nil {
		e.log.Warn().Err(err).Msg("vector search failed, using keyword search")
		return e.keywordFallback(ctx, anchor)
	}

	candidates := make([]ranking.Candidate, len(similar))
	for i, s := range similar {
		candidates[i] = ranking.Candidate{Text: s.SubjectLine.SubjectLine, VectorScore: s.Similarity}
	}

	ranked := ranking.Rank(anchor, candidates, e.rankCfg)
	if len(ranked) == 0 {
		return e.keywordFallback(ctx, anchor)
	}

	picked := make([]storage.SimilarSubjectLine, len(ranked))
	for i, r := range ranked {
		picked[i] = similar[r.Index]
	}

	return FormatSimilarSubjectLines(picked)
}

func (e *Executor) keywordFallback(ctx context.Context, anchor string) string {
	lines, err := e.store.SearchByKeyword(ctx, anchor, e.maxResults())
	if err != nil {
		e.log.Warn().Err(err).Msg("keyword search failed")
		return FallbackParagraph
	}
	if len(lines) == 0 {
		return FallbackParagraph
	}
	return FormatSubjectLines(lines)
}

// resolveSQL gates and executes model-generated SQL; any rejection or
// execution failure falls back to the templated path.
func (e *Executor) resolveSQL(ctx context.Context, f intent.Facet) string {
	if err := sqlgate.Check(f.GeneratedSQL); err != nil {
		e.log.Warn().Err(err).Msg("generated sql rejected, using template query")
		return e.resolveTemplate(ctx, f)
	}

	rows, err := e.store.Execute(ctx, f.GeneratedSQL)
	if err != nil {
		e.log.Warn().Err(err).Msg("generated sql failed, using template query")
		return e.resolveTemplate(ctx, f)
	}
	if len(rows) == 0 {
		return e.resolveTemplate(ctx, f)
	}

	return FormatRows(rows)
}

// resolveTemplate answers a facet from canned parameterized queries.
func (e *Executor) resolveTemplate(ctx context.Context, f intent.Facet) string {
	switch f.Kind {
	case intent.FacetSpendAnalysis, intent.FacetTrendAnalysis:
		return e.spendTemplate(ctx, f)
	case intent.FacetCompanyComparison:
		if strings.Contains(strings.ToLower(f.Metric), "spend") {
			return e.spendTemplate(ctx, f)
		}
		return e.subjectLineTemplate(ctx, f)
	default:
		return e.subjectLineTemplate(ctx, f)
	}
}

func (e *Executor) subjectLineTemplate(ctx context.Context, f intent.Facet) string {
	orderBy := "open_rate"
	if f.Kind == intent.FacetVolume {
		orderBy = "projected_volume"
	}

	lines, err := e.store.TopPerforming(ctx, storage.SubjectLineFilter{
		Companies:     f.Companies,
		SubIndustries: f.SubIndustries,
		MailingTypes:  f.MailingTypes,
		OrderBy:       orderBy,
		Limit:         e.maxResults(),
	})
	if err != nil {
		e.log.Warn().Err(err).Str("kind", string(f.Kind)).Msg("template query failed")
		return ""
	}
	if len(lines) == 0 {
		return ""
	}

	return FormatSubjectLines(lines)
}

func (e *Executor) spendTemplate(ctx context.Context, f intent.Facet) string {
	rows, err := e.store.SpendByCompanies(ctx, storage.SpendFilter{Companies: f.Companies})
	if err != nil {
		e.log.Warn().Err(err).Msg("spend query failed")
		return ""
	}

	// The warehouse's date column is free text, so period filtering happens
	// here on the returned rows. If the filter matches nothing the full
	// series is kept rather than producing an empty block.
	filtered := filterSpendByPeriod(rows, f.DateRange)
	if len(filtered) == 0 {
		return ""
	}

	return FormatSpendRows(filtered)
}

func (e *Executor) maxResults() int {
	if e.rankCfg.MaxResults > 0 {
		return e.rankCfg.MaxResults
	}
	return 10
}

// filterSpendByPeriod keeps rows whose coded date mentions the requested
// period. An unmatched filter returns all rows.
func filterSpendByPeriod(rows []storage.SpendRow, dr *intent.DateRange) []storage.SpendRow {
	if dr == nil || (dr.Start == "" && dr.End == "") {
		return rows
	}

	terms := append(tokenizePeriod(dr.Start), tokenizePeriod(dr.End)...)
	if len(terms) == 0 {
		return rows
	}

	var kept []storage.SpendRow
	for _, row := range rows {
		coded := strings.ToLower(row.DateCoded)
		for _, t := range terms {
			if strings.Contains(coded, t) {
				kept = append(kept, row)
				break
			}
		}
	}

	if len(kept) == 0 {
		return rows
	}
	return kept
}

func tokenizePeriod(s string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
