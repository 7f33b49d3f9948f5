package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rideal/bike-catalog/internal/catalog"
	"github.com/rideal/bike-catalog/internal/session"
	"github.com/rideal/bike-catalog/internal/upstream"
)

const noResultsMessage = "לא נמצאו תוצאות."

func countMessage(n int) string {
	if n == 0 {
		return noResultsMessage
	}
	return fmt.Sprintf("נמצאו %d אופניים", n)
}

type listResponse struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Message string             `json:"message"`
	Bikes   []catalog.CardView `json:"bikes"`
}

// emptyListResponse is the muted in-place state for failed listing fetches.
// The prior rendered state stays visible client-side; no error payload.
func emptyListResponse() listResponse {
	return listResponse{Success: false, Message: noResultsMessage, Bikes: []catalog.CardView{}}
}

func (s *Server) handleFilterBikes(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.View.Load(ctx); err != nil {
		c.Logger().Errorf("Failed to load catalog snapshot: %v", err)
		return c.JSON(http.StatusOK, emptyListResponse())
	}

	// A refreshing request re-fetches the snapshot in the background; rapid
	// bursts coalesce into one fetch, served by whoever asks next.
	if c.QueryParam("refresh") == "1" {
		s.refresh.Trigger(func() {
			if err := s.View.Refresh(context.Background()); err != nil {
				s.Echo.Logger.Errorf("Background catalog refresh failed: %v", err)
			}
		})
	}

	params := c.QueryParams()
	crit := criteriaFromQuery(params)
	limits := s.Config.LimitsFor(c.QueryParam("category"))
	products := s.View.Apply(crit, sortFromQuery(params), limits)

	cards := s.projectCards(c, products)
	return c.JSON(http.StatusOK, listResponse{
		Success: true,
		Count:   len(cards),
		Message: countMessage(len(cards)),
		Bikes:   cards,
	})
}

func (s *Server) handleSearchBikes(c echo.Context) error {
	records, err := s.Upstream.SearchBikes(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		c.Logger().Errorf("Search failed: %v", err)
		return c.JSON(http.StatusOK, emptyListResponse())
	}

	products := make([]catalog.Product, 0, len(records))
	for _, record := range records {
		products = append(products, catalog.Normalize(record))
	}
	cards := s.projectCards(c, products)
	return c.JSON(http.StatusOK, listResponse{
		Success: true,
		Count:   len(cards),
		Message: countMessage(len(cards)),
		Bikes:   cards,
	})
}

func (s *Server) handleGetBike(c echo.Context) error {
	record, err := s.Upstream.GetBike(c.Request().Context(), c.Param("id"))
	if err != nil {
		c.Logger().Errorf("Failed to fetch bike %s: %v", c.Param("id"), err)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Bike not found"})
	}
	return c.JSON(http.StatusOK, catalog.ProjectDetails(catalog.Normalize(record)))
}

func (s *Server) handleSimilarBikes(c echo.Context) error {
	records, err := s.Upstream.SimilarBikes(c.Request().Context(), c.Param("id"))
	if err != nil {
		c.Logger().Errorf("Failed to fetch similar bikes for %s: %v", c.Param("id"), err)
		return c.JSON(http.StatusOK, emptyListResponse())
	}

	cards := make([]catalog.CardView, 0, len(records))
	for _, record := range records {
		cards = append(cards, catalog.Project(catalog.Normalize(record)))
	}
	return c.JSON(http.StatusOK, map[string]any{"similar_bikes": cards})
}

func (s *Server) handleCities(c echo.Context) error {
	names, err := s.Cities.Suggest(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		c.Logger().Errorf("City lookup failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "City lookup unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]any{"cities": names})
}

// Compare endpoints. Failures come back as explicit error payloads so the
// client can surface them; the selection is never flipped optimistically.

type compareRequest struct {
	BikeID string `json:"bike_id"`
}

type compareResponse struct {
	Success     bool     `json:"success"`
	CompareList []string `json:"compare_list,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (s *Server) handleAddToCompare(c echo.Context) error {
	return s.mutateCompare(c, func(ctx context.Context, state *session.State, id string) ([]string, error) {
		return state.Selection.Add(ctx, id)
	})
}

func (s *Server) handleRemoveFromCompare(c echo.Context) error {
	return s.mutateCompare(c, func(ctx context.Context, state *session.State, id string) ([]string, error) {
		return state.Selection.Remove(ctx, id)
	})
}

func (s *Server) mutateCompare(c echo.Context, mutate func(context.Context, *session.State, string) ([]string, error)) error {
	state, err := session.FromContext(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, compareResponse{Error: "Session unavailable"})
	}

	var req compareRequest
	if err := c.Bind(&req); err != nil || req.BikeID == "" {
		return c.JSON(http.StatusBadRequest, compareResponse{Error: "Invalid request"})
	}

	list, err := mutate(c.Request().Context(), state, req.BikeID)
	if err != nil {
		var compareErr *upstream.CompareError
		if errors.As(err, &compareErr) {
			return c.JSON(http.StatusBadRequest, compareResponse{Error: compareErr.Message})
		}
		c.Logger().Errorf("Compare mutation failed: %v", err)
		return c.JSON(http.StatusBadGateway, compareResponse{Error: "Compare service unavailable"})
	}
	return c.JSON(http.StatusOK, compareResponse{Success: true, CompareList: list})
}

func (s *Server) handleClearCompare(c echo.Context) error {
	state, err := session.FromContext(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, compareResponse{Error: "Session unavailable"})
	}
	if err := state.Selection.Clear(c.Request().Context()); err != nil {
		c.Logger().Errorf("Failed to clear compare list: %v", err)
		return c.JSON(http.StatusBadGateway, compareResponse{Error: "Compare service unavailable"})
	}
	return c.JSON(http.StatusOK, compareResponse{Success: true})
}

func (s *Server) handleCompareList(c echo.Context) error {
	state, err := session.FromContext(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, compareResponse{Error: "Session unavailable"})
	}
	if err := state.Selection.Refresh(c.Request().Context()); err != nil {
		c.Logger().Errorf("Failed to fetch compare list: %v", err)
	}
	// The local mirror answers even when the backend is unreachable.
	return c.JSON(http.StatusOK, map[string]any{"compare_list": state.Selection.Current()})
}

// projectCards builds card view models and marks the session's compared items.
func (s *Server) projectCards(c echo.Context, products []catalog.Product) []catalog.CardView {
	cards := make([]catalog.CardView, 0, len(products))
	for _, p := range products {
		cards = append(cards, catalog.Project(p))
	}
	if state, err := session.FromContext(c); err == nil {
		catalog.MarkCompared(cards, state.Selection.Current())
	}
	return cards
}
