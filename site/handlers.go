package site

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/feed"
	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/market"
	"github.com/newsdailly/newsdailly/theme"
)

// FeedResponse is one page of a feed. NextCursor resumes the feed after
// the last item and is empty once HasMore is false.
type FeedResponse struct {
	Feed       string                `json:"feed"`
	Category   string                `json:"category,omitempty"`
	Items      []article.ArticleView `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
	Skipped    int                   `json:"skipped,omitempty"`
	Error      string                `json:"error,omitempty"`
	SEO        SEO                   `json:"seo"`
}

// CategoryResponse describes one navigable category.
type CategoryResponse struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Route string `json:"route"`
	Feed  bool   `json:"feed"`
}

// PublishedDisplay is the publication date in display and ISO form. Both
// are empty when the date is unknown.
type PublishedDisplay struct {
	Display string `json:"display"`
	ISO     string `json:"iso,omitempty"`
}

// ArticleResponse is everything the article page shows.
type ArticleResponse struct {
	Article     article.ArticleView   `json:"article"`
	HeroImage   *string               `json:"hero_image"`
	Published   PublishedDisplay      `json:"published"`
	Breadcrumbs []Breadcrumb          `json:"breadcrumbs"`
	SEO         SEO                   `json:"seo"`
	Suggestions []article.ArticleView `json:"suggestions"`
}

// ThemeResponse reports the current theme.
type ThemeResponse struct {
	Mode theme.Mode `json:"mode"`
}

// HandleHomeFeed handles GET /api/v1/feed.
func (s *Server) HandleHomeFeed(c *gin.Context) {
	s.serveFeed(c, feed.Filter{}, SiteSEO(s.siteURL, "", "", "/"))
}

// HandleCategoryFeed handles GET /api/v1/categories/:slug/feed.
func (s *Server) HandleCategoryFeed(c *gin.Context) {
	category, ok := article.LookupCategory(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("category_not_found", "Unknown category "+c.Param("slug")))
		return
	}
	seo := SiteSEO(s.siteURL, category.Name+" | "+article.SiteName, "", category.Route())
	s.serveFeed(c, feed.Filter{Category: category.Name}, seo)
}

func (s *Server) serveFeed(c *gin.Context, filter feed.Filter, seo SEO) {
	cursor, err := docstore.ParseCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid cursor parameter"))
		return
	}

	loader := feed.NewLoader(s.store, feed.WithLogger(s.log), feed.WithMetrics(s.metrics))
	loader.Resume(filter, cursor)

	page, err := loader.LoadNextPage(c.Request.Context())
	if err != nil && c.Request.Context().Err() != nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	resp := FeedResponse{
		Feed:     filter.Label(),
		Category: filter.Category,
		Items:    page.Items,
		HasMore:  loader.HasMore(),
		Skipped:  len(page.Skipped),
		SEO:      seo,
	}
	if resp.HasMore {
		resp.NextCursor = loader.Cursor().String()
	}

	var loadErr *feed.LoadError
	if errors.As(err, &loadErr) {
		resp.Error = "Failed to load articles"
		c.JSON(http.StatusBadGateway, resp)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to load articles"))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleListCategories handles GET /api/v1/categories.
func (s *Server) HandleListCategories(c *gin.Context) {
	categories := article.Categories()
	resp := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, CategoryResponse{
			Name:  cat.Name,
			Slug:  cat.Slug,
			Route: cat.Route(),
			Feed:  cat.Feed,
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": resp})
}

// HandleGetArticle handles GET /api/v1/articles/:slug.
func (s *Server) HandleGetArticle(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")

	doc, err := s.store.FindBySlug(ctx, slug)
	if errors.Is(err, docstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("article_not_found", "Article not found"))
		return
	}
	if err != nil {
		s.log.Error("Article lookup failed", logger.String("slug", slug), logger.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse("store_error", "Failed to load article"))
		return
	}

	view, err := doc.View()
	if err != nil {
		s.log.Warn("Article document is malformed",
			logger.String("doc_id", doc.ID),
			logger.String("slug", slug),
			logger.Error(err),
		)
		c.JSON(http.StatusUnprocessableEntity, errorResponse("malformed_article", err.Error()))
		return
	}

	resp := ArticleResponse{
		Article:     view,
		Breadcrumbs: Breadcrumbs(view.Title, view.Category),
		Suggestions: []article.ArticleView{},
	}

	var image string
	if s.images != nil {
		if url, ok := s.images.Resolve(ctx, slug); ok {
			image = url
			resp.HeroImage = &image
		}
	}
	if view.PublishedAt != nil {
		resp.Published = PublishedDisplay{
			Display: article.FormatPublished(*view.PublishedAt),
			ISO:     article.FormatISO(*view.PublishedAt),
		}
	}
	resp.SEO = ArticleSEO(s.siteURL, view, image)

	suggestions, err := feed.Suggest(ctx, s.store, slug, ArticleSuggestions)
	if err != nil {
		s.log.Warn("Suggestions unavailable", logger.String("slug", slug), logger.Error(err))
	} else {
		resp.Suggestions = suggestions
	}

	c.JSON(http.StatusOK, resp)
}

// HandleMarkets handles GET /api/v1/markets.
func (s *Server) HandleMarkets(c *gin.Context) {
	if s.markets == nil {
		c.JSON(http.StatusOK, market.Board{Chips: market.Chips(market.DefaultSymbols, nil)})
		return
	}
	c.JSON(http.StatusOK, s.markets.Board())
}

// HandleGetTheme handles GET /api/v1/theme.
func (s *Server) HandleGetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, ThemeResponse{Mode: s.theme.Mode()})
}

// HandleToggleTheme handles POST /api/v1/theme/toggle.
func (s *Server) HandleToggleTheme(c *gin.Context) {
	mode, err := s.theme.Toggle()
	if err != nil {
		s.log.Error("Theme toggle failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to update theme"))
		return
	}
	c.JSON(http.StatusOK, ThemeResponse{Mode: mode})
}

// HandleSetTheme handles PUT /api/v1/theme.
func (s *Server) HandleSetTheme(c *gin.Context) {
	var req ThemeResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("bad_request", err.Error()))
		return
	}
	mode, err := theme.ParseMode(string(req.Mode))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
		return
	}
	if err := s.theme.Set(mode); err != nil {
		s.log.Error("Theme update failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to update theme"))
		return
	}
	c.JSON(http.StatusOK, ThemeResponse{Mode: mode})
}
