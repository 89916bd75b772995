// Package render validates Mermaid source and renders it to SVG through a
// Kroki server.
package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hurou927/xampp-tools/internal/toolerr"
)

// DiagramTypes are the Mermaid diagram headers accepted for rendering, in
// match order (longer variants first where they share a prefix).
var DiagramTypes = []string{
	"erDiagram",
	"flowchart",
	"graph",
	"sequenceDiagram",
	"classDiagram",
	"stateDiagram-v2",
	"stateDiagram",
	"journey",
	"gantt",
	"pie",
	"gitGraph",
	"gitgraph",
	"mindmap",
	"timeline",
	"quadrantChart",
	"sankey-beta",
	"sankey",
	"xychart-beta",
	"xychart",
	"block-beta",
	"block",
}

var (
	lineBreak    = regexp.MustCompile(`\r?\n`)
	databaseHint = regexp.MustCompile(`(?i)^%%\s*database\s*:\s*([A-Za-z0-9_\-]+)\s*$`)
	unsafeRuns   = regexp.MustCompile(`[^a-z0-9_-]+`)
)

const maxNameLength = 120

// DetectDiagramType returns the diagram type named by the first line that is
// neither blank nor a %% comment.
func DetectDiagramType(code string) (string, error) {
	var first string
	for _, line := range lineBreak.Split(code, -1) {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "%%") {
			first = line
			break
		}
	}
	if first == "" {
		return "", toolerr.New(toolerr.ErrInvalidInput, "code cannot be empty")
	}

	lower := strings.ToLower(first)
	for _, t := range DiagramTypes {
		if strings.HasPrefix(lower, strings.ToLower(t)) {
			return t, nil
		}
	}
	return "", toolerr.New(toolerr.ErrInvalidInput,
		"Unsupported Mermaid diagram type. Start your code with one of: %s", strings.Join(DiagramTypes, ", "))
}

// DatabaseHint returns the database named by a "%% database: <name>" line,
// or "" when there is none.
func DatabaseHint(code string) string {
	for _, line := range lineBreak.Split(code, -1) {
		if m := databaseHint.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return ""
}

// SanitizeFileName lower-cases s and collapses anything outside
// [a-z0-9_-] into single underscores.
func SanitizeFileName(s string) string {
	out := unsafeRuns.ReplaceAllString(strings.ToLower(s), "_")
	out = strings.Trim(out, "_")
	if len(out) > maxNameLength {
		out = out[:maxNameLength]
	}
	return out
}

// OutputPath picks where an SVG is saved. An explicit path wins and gets an
// .svg suffix when missing; otherwise diagrams/<database|title|diagram>.svg
// under dir.
func OutputPath(explicit, database, title, dir string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		if strings.HasSuffix(strings.ToLower(p), ".svg") {
			return p
		}
		return p + ".svg"
	}
	base := SanitizeFileName(database)
	if base == "" {
		base = SanitizeFileName(title)
	}
	if base == "" {
		base = "diagram"
	}
	return filepath.Join(dir, "diagrams", base+".svg")
}

// Renderer turns Mermaid source into SVG markup.
type Renderer interface {
	RenderSVG(ctx context.Context, code string) (string, error)
}

// Kroki renders through a Kroki server's /mermaid/svg endpoint.
type Kroki struct {
	BaseURL string
	HTTP    *http.Client
}

// NewKroki returns a client for baseURL with a bounded HTTP timeout.
func NewKroki(baseURL string) *Kroki {
	return &Kroki{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// RenderSVG implements Renderer. Non-2xx responses and bodies without an
// <svg element fail with toolerr.ErrRenderFailed.
func (k *Kroki) RenderSVG(ctx context.Context, code string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.BaseURL+"/mermaid/svg", strings.NewReader(code))
	if err != nil {
		return "", toolerr.Wrap(toolerr.ErrRenderFailed, err, "Remote Mermaid render error: %v", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := k.HTTP.Do(req)
	if err != nil {
		return "", toolerr.Wrap(toolerr.ErrRenderFailed, err, "Remote Mermaid render error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", toolerr.Wrap(toolerr.ErrRenderFailed, err, "Remote Mermaid render error: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", toolerr.New(toolerr.ErrRenderFailed, "Remote Mermaid render failed (%d)", resp.StatusCode)
	}
	svg := string(body)
	if !strings.Contains(strings.ToLower(svg), "<svg") {
		return "", toolerr.New(toolerr.ErrRenderFailed, "Renderer did not return valid SVG content")
	}
	return svg, nil
}

// Describe returns the markdown summary shown for a diagram.
func Describe(code, diagramType, title string) string {
	var sb strings.Builder
	sb.WriteString("Mermaid diagram ready.\n")
	if title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", title)
	}
	fmt.Fprintf(&sb, "Type: %s\n```mermaid\n%s\n```", diagramType, code)
	return sb.String()
}
