// Package web is the HTTP surface of the catalog: the server-rendered bikes
// page plus the JSON endpoints its scripts call.
package web

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rideal/bike-catalog/internal/catalog"
	"github.com/rideal/bike-catalog/internal/cities"
	"github.com/rideal/bike-catalog/internal/config"
	"github.com/rideal/bike-catalog/internal/session"
	"github.com/rideal/bike-catalog/internal/upstream"
)

type Server struct {
	Echo     *echo.Echo
	Config   *config.Config
	Upstream *upstream.Client
	View     *catalog.ViewState
	Cities   *cities.Provider
	Sessions *session.Manager

	// Coalesces refresh-triggering requests into one snapshot fetch.
	refresh *catalog.Debouncer
}

func NewServer(cfg *config.Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := append([]string{}, cfg.Server.CORSOrigins...)
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	if len(allowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	timeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	client := upstream.NewClient(cfg.Upstream.BaseURL, timeout)

	view := catalog.NewViewState(func(ctx context.Context) ([]catalog.Product, error) {
		records, err := client.FilterBikes(ctx, nil)
		if err != nil {
			return nil, err
		}
		products := make([]catalog.Product, 0, len(records))
		for _, record := range records {
			products = append(products, catalog.Normalize(record))
		}
		return products, nil
	})

	s := &Server{
		Echo:     e,
		Config:   cfg,
		Upstream: client,
		View:     view,
		Cities:   cities.NewProvider(cfg.Cities.BaseURL, cfg.Cities.ResourceID, timeout),
		Sessions: session.NewManager(client),
		refresh:  catalog.NewDebouncer(catalog.SearchDebounce),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	s.Echo.GET("/bikes", s.handleCatalogPage, s.Sessions.Middleware)

	s.Echo.GET("/api/filter_bikes", s.handleFilterBikes, s.Sessions.Middleware)
	s.Echo.GET("/api/search_bikes", s.handleSearchBikes, s.Sessions.Middleware)
	s.Echo.GET("/api/bike/:id", s.handleGetBike)
	s.Echo.GET("/similar_bikes/:id", s.handleSimilarBikes)
	s.Echo.GET("/api/cities", s.handleCities)

	s.Echo.POST("/add_to_compare", s.handleAddToCompare, s.Sessions.Middleware)
	s.Echo.POST("/remove_from_compare", s.handleRemoveFromCompare, s.Sessions.Middleware)
	s.Echo.POST("/clear_compare", s.handleClearCompare, s.Sessions.Middleware)
	s.Echo.GET("/api/compare_list", s.handleCompareList, s.Sessions.Middleware)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
