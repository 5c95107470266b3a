// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httplib "github.com/xataio/csv2chain/internal/http"
	jsonlib "github.com/xataio/csv2chain/internal/json"
	"github.com/xataio/csv2chain/pkg/conversion"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/table"
	"github.com/xataio/csv2chain/pkg/workspace"
)

// Server exposes a workspace session over HTTP.
type Server struct {
	server        httplib.Server
	handler       http.Handler
	logger        loglib.Logger
	session       *workspace.Session
	address       string
	maxTableBytes int64
}

type Option func(*Server)

const (
	fnParam  = "fn"
	colParam = "col"
)

var errInvalidIndex = errors.New("invalid index")

func New(cfg *Config, session *workspace.Session, opts ...Option) *Server {
	s := &Server{
		address:       cfg.address(),
		maxTableBytes: cfg.maxTableBytes(),
		session:       session,
		logger:        loglib.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = &jsonSerializer{}
	e.Server.ReadTimeout = cfg.readTimeout()
	e.Server.WriteTimeout = cfg.writeTimeout()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request", loglib.Fields{
				"method": v.Method,
				"uri":    v.URI,
				"status": v.Status,
			})
			return nil
		},
	}))

	e.PUT("/table", s.loadTable)
	e.GET("/table", s.getTable)
	e.GET("/contracts", s.listContracts)
	e.GET("/conversions", s.listConversions)
	e.GET("/functions", s.listFunctions)
	e.POST("/functions", s.addFunction)
	e.DELETE("/functions/:fn", s.removeFunction)
	e.PUT("/functions/:fn/contract", s.selectContract)
	e.PUT("/functions/:fn/function", s.selectFunction)
	e.GET("/functions/:fn/columns/:col/parameters", s.selectableParameters)
	e.PUT("/functions/:fn/columns/:col/parameter", s.selectParameter)
	e.PUT("/functions/:fn/columns/:col/conversion", s.selectConversion)
	e.POST("/migrations", s.startMigration)
	e.GET("/log", s.getLog)

	s.server = e
	s.handler = e

	return s
}

func WithLogger(l loglib.Logger) Option {
	return func(s *Server) {
		s.logger = loglib.WithModule(l, "workspace_server")
	}
}

// Start will start the workspace server. This call is blocking.
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("workspace server listening on: %s...", s.address))
	return s.server.Start(s.address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) loadTable(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.maxTableBytes+1))
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	if int64(len(body)) > s.maxTableBytes {
		return s.errorResponse(c, http.StatusRequestEntityTooLarge, fmt.Errorf("table larger than %d bytes", s.maxTableBytes))
	}

	if err := s.session.LoadTable(string(body)); err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return c.JSON(http.StatusOK, newTableView(s.session.Table()))
}

func (s *Server) getTable(c echo.Context) error {
	return c.JSON(http.StatusOK, newTableView(s.session.Table()))
}

func (s *Server) listContracts(c echo.Context) error {
	contracts, err := s.session.Contracts(c.Request().Context())
	if err != nil {
		return s.errorResponse(c, http.StatusServiceUnavailable, err)
	}
	return c.JSON(http.StatusOK, newContractViews(contracts))
}

func (s *Server) listConversions(c echo.Context) error {
	names := []string{}
	for _, conv := range conversion.All() {
		names = append(names, conv.Name())
	}
	return c.JSON(http.StatusOK, names)
}

func (s *Server) listFunctions(c echo.Context) error {
	return c.JSON(http.StatusOK, newMigrationFunctionViews(s.session.Functions()))
}

func (s *Server) addFunction(c echo.Context) error {
	return c.JSON(http.StatusCreated, indexResponse{Index: s.session.AddFunction()})
}

func (s *Server) removeFunction(c echo.Context) error {
	fn, err := indexParam(c, fnParam)
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	if err := s.session.RemoveFunction(fn); err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) selectContract(c echo.Context) error {
	fn, err := indexParam(c, fnParam)
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	req := &nameRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	if err := s.session.SelectContract(c.Request().Context(), fn, req.Name); err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return s.functionResponse(c, fn)
}

func (s *Server) selectFunction(c echo.Context) error {
	fn, err := indexParam(c, fnParam)
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	req := &nameRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	if err := s.session.SelectFunction(fn, req.Name); err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return s.functionResponse(c, fn)
}

func (s *Server) selectableParameters(c echo.Context) error {
	fn, col, err := columnParams(c)
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	params, err := s.session.SelectableParameters(fn, col)
	if err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return c.JSON(http.StatusOK, parametersResponse{Parameters: params})
}

func (s *Server) selectParameter(c echo.Context) error {
	fn, col, err := columnParams(c)
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	req := &nameRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	if err := s.session.SelectParameter(fn, col, req.Name); err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return s.functionResponse(c, fn)
}

func (s *Server) selectConversion(c echo.Context) error {
	fn, col, err := columnParams(c)
	if err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	req := &nameRequest{}
	if err := c.Bind(req); err != nil {
		return s.errorResponse(c, http.StatusBadRequest, err)
	}
	if err := s.session.SelectConversion(fn, col, req.Name); err != nil {
		return s.errorResponse(c, statusFor(err), err)
	}
	return s.functionResponse(c, fn)
}

func (s *Server) startMigration(c echo.Context) error {
	req := &migrationRequest{}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(req); err != nil {
			return s.errorResponse(c, http.StatusBadRequest, err)
		}
	}

	// the run outlives the request
	ctx := context.WithoutCancel(c.Request().Context())
	run := s.session.Run(ctx, migration.RunOptions{From: req.From})
	s.logger.Info("migration started", loglib.Fields{loglib.RunIDField: run.ID()})
	return c.JSON(http.StatusAccepted, migrationResponse{RunID: run.ID()})
}

func (s *Server) getLog(c echo.Context) error {
	since := 0
	if v := c.QueryParam("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return s.errorResponse(c, http.StatusBadRequest, fmt.Errorf("%w: since=%s", errInvalidIndex, v))
		}
		since = n
	}
	return c.JSON(http.StatusOK, newLogResponse(s.session.Log().Since(since), since))
}

func (s *Server) functionResponse(c echo.Context, fn int) error {
	views := newMigrationFunctionViews(s.session.Functions())
	if fn >= len(views) {
		return s.errorResponse(c, http.StatusNotFound, fmt.Errorf("%w: %d", workspace.ErrFunctionNotFound, fn))
	}
	return c.JSON(http.StatusOK, views[fn])
}

func (s *Server) errorResponse(c echo.Context, status int, err error) error {
	if status >= http.StatusInternalServerError {
		s.logger.Error(err, "workspace request failed", loglib.Fields{"path": c.Path()})
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var parseErr *table.ParseError
	switch {
	case errors.Is(err, workspace.ErrContractNotFound):
		return http.StatusNotFound
	case errors.Is(err, workspace.ErrFunctionNotFound),
		errors.Is(err, workspace.ErrColumnNotFound),
		errors.Is(err, workspace.ErrFunctionNotSet),
		errors.Is(err, conversion.ErrUnknownConversion),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func indexParam(c echo.Context, name string) (int, error) {
	v := c.Param(name)
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%s", errInvalidIndex, name, v)
	}
	return i, nil
}

func columnParams(c echo.Context) (int, int, error) {
	fn, err := indexParam(c, fnParam)
	if err != nil {
		return 0, 0, err
	}
	col, err := indexParam(c, colParam)
	if err != nil {
		return 0, 0, err
	}
	return fn, col, nil
}

type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i any, indent string) error {
	b, err := jsonlib.Marshal(i)
	if err != nil {
		return err
	}
	_, err = c.Response().Write(b)
	return err
}

func (jsonSerializer) Deserialize(c echo.Context, i any) error {
	b, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if err := jsonlib.Unmarshal(b, i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}
