package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rideal/bike-catalog/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type catalogPage struct {
	Message string
	Cards   []catalog.CardView
}

// handleCatalogPage renders the full bikes page with the unfiltered snapshot.
// A failed snapshot load renders the empty state rather than an error page.
func (s *Server) handleCatalogPage(c echo.Context) error {
	page := catalogPage{Message: noResultsMessage, Cards: []catalog.CardView{}}

	if err := s.View.Load(c.Request().Context()); err != nil {
		c.Logger().Errorf("Failed to load catalog snapshot: %v", err)
	} else {
		limits := s.Config.LimitsFor("")
		products := s.View.Apply(catalog.Criteria{}, catalog.SortNone, limits)
		page.Cards = s.projectCards(c, products)
		page.Message = countMessage(len(page.Cards))
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return pageTemplates.ExecuteTemplate(c.Response(), "catalog.html", page)
}
