// Package server exposes the tool registry over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hurou927/xampp-tools/internal/toolerr"
	"github.com/hurou927/xampp-tools/internal/tools"
)

// RequestIDHeader carries the per-request id. An incoming value is kept.
const RequestIDHeader = "X-Request-ID"

// WriteTimeout leaves room for db_import, the slowest tool.
const WriteTimeout = 4 * time.Minute

// ToolInfo is the listing shape for GET /tools.
type ToolInfo struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Params      []tools.Param `json:"params"`
	Hints       Hints         `json:"hints"`
}

// Hints describes side effects of a tool.
type Hints struct {
	ReadOnly          bool `json:"readOnly"`
	Destructive       bool `json:"destructive"`
	OpenWorld         bool `json:"openWorld"`
	NeedsConfirmation bool `json:"needsConfirmation"`
}

// ToolError is the body returned when a tool fails.
type ToolError struct {
	IsError bool   `json:"isError"`
	Code    string `json:"code"`
	Content string `json:"content"`
}

type handler struct {
	registry *tools.Registry
}

// NewRouter builds the gin engine for reg.
func NewRouter(reg *tools.Registry) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(requestID)

	h := &handler{registry: reg}
	router.GET("/healthz", h.health)
	router.GET("/tools", h.list)
	router.POST("/tools/:name", h.call)
	return router
}

// New returns an http.Server serving reg on addr.
func New(reg *tools.Registry, addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(reg),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: WriteTimeout,
	}
}

func requestID(c *gin.Context) {
	id := c.GetHeader(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("requestId", id)
	c.Header(RequestIDHeader, id)
	c.Next()
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) list(c *gin.Context) {
	list := h.registry.List()
	infos := make([]ToolInfo, 0, len(list))
	for _, t := range list {
		params := t.Params
		if params == nil {
			params = []tools.Param{}
		}
		infos = append(infos, ToolInfo{
			Name:        t.Name,
			Title:       t.Title,
			Description: t.Description,
			Params:      params,
			Hints: Hints{
				ReadOnly:          t.ReadOnly,
				Destructive:       t.Destructive,
				OpenWorld:         t.OpenWorld,
				NeedsConfirmation: t.NeedsConfirmation(),
			},
		})
	}
	c.JSON(http.StatusOK, gin.H{"tools": infos})
}

func (h *handler) call(c *gin.Context) {
	name := c.Param("name")
	tool, ok := h.registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ToolError{IsError: true, Code: "NOT_FOUND", Content: "Unknown tool: " + name})
		return
	}

	args, err := decodeArgs(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ToolError{IsError: true, Code: "INVALID_INPUT", Content: err.Error()})
		return
	}

	res, err := tool.Call(c.Request.Context(), args)
	if err != nil {
		c.JSON(http.StatusOK, ToolError{IsError: true, Code: toolerr.Code(err), Content: err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// decodeArgs reads a JSON object. An empty body means no arguments. Numbers
// stay json.Number so integer params are not rounded through float64.
func decodeArgs(body io.Reader) (tools.Args, error) {
	if body == nil {
		return tools.Args{}, nil
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return tools.Args{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("request body must be a single JSON object")
	}
	return tools.Args(obj), nil
}
