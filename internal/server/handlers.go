package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/measure"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "measure_object", "segment_frame").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	callID := uuid.NewString()
	log := s.log.WithField("capture_id", callID).WithField("tool", params.Name)

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Debug("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("tool done")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler unmarshals its arguments, loads frames through the cache and
// runs the measurement pipeline.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Measurement
	case "measure_object":
		return s.handleMeasureObject(args)
	case "analyze_top_view":
		return s.handleAnalyzeTopView(args)
	case "estimate_height":
		return s.handleEstimateHeight(args)

	// Diagnostics
	case "segment_frame":
		return s.handleSegmentFrame(args)
	case "sample_color":
		return s.handleSampleColor(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Measurement Handlers ===

type measureObjectArgs struct {
	TopPath  string `json:"top_path"`
	SidePath string `json:"side_path"`
}

// MeasureObjectResult is a full measurement with its printable summary.
type MeasureObjectResult struct {
	Record  measure.Record `json:"record"`
	Summary string         `json:"summary"`
}

func (s *Server) handleMeasureObject(args json.RawMessage) (interface{}, error) {
	var a measureObjectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	top, err := s.cache.Load(a.TopPath)
	if err != nil {
		return nil, err
	}
	side, err := s.cache.Load(a.SidePath)
	if err != nil {
		return nil, err
	}
	rec, err := s.session.Measure(top, side)
	if err != nil {
		return nil, err
	}
	return &MeasureObjectResult{Record: rec, Summary: rec.Summary()}, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

// TopViewResult describes the enclosure and the shapes found inside it.
type TopViewResult struct {
	EnclosureFound bool              `json:"enclosure_found"`
	Enclosure      detection.Bounds  `json:"enclosure"`
	RatioPxPerCm   float64           `json:"ratio_px_per_cm"`
	RatioValid     bool              `json:"ratio_valid"`
	HasPrimary     bool              `json:"has_primary"`
	Primary        detection.Shape   `json:"primary"`
	Secondary      []detection.Shape `json:"secondary"`

	// Annotated is the enclosure crop with the primary contour outlined.
	Annotated *imaging.EncodedImage `json:"annotated,omitempty"`
}

func (s *Server) handleAnalyzeTopView(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	tv, err := s.session.Top.Analyze(frame)
	if err != nil {
		return nil, err
	}

	result := &TopViewResult{
		EnclosureFound: tv.Found,
		Enclosure:      detection.BoundsOf(tv.Enclosure),
		RatioPxPerCm:   float64(tv.Ratio),
		RatioValid:     tv.RatioOK,
		HasPrimary:     tv.HasPrimary,
		Primary:        tv.Primary,
		Secondary:      tv.Secondary,
	}

	if tv.Cropped != nil {
		var outline []image.Point
		label := ""
		if tv.HasPrimary {
			outline = tv.PrimaryContour.Points
			label = tv.Primary.Describe()
		}
		enc, err := imaging.EncodePNG(imaging.Annotate(tv.Cropped, outline, "#00FF00", label), 1.0)
		if err != nil {
			return nil, err
		}
		result.Annotated = enc
	}
	return result, nil
}

type estimateHeightArgs struct {
	Path     string  `json:"path"`
	OffsetCm float64 `json:"offset_cm"`
}

func (s *Server) handleEstimateHeight(args json.RawMessage) (interface{}, error) {
	var a estimateHeightArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	h, err := s.session.Height.Estimate(frame, s.session.ReferenceStripCm, a.OffsetCm)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// === Diagnostic Handlers ===

type segmentFrameArgs struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

// SegmentResult holds encoded masks keyed by name ("top", "reference", "object")
// with their foreground pixel counts.
type SegmentResult struct {
	Mode   string                           `json:"mode"`
	Masks  map[string]*imaging.EncodedImage `json:"masks"`
	Counts map[string]int                   `json:"counts"`
}

func (s *Server) handleSegmentFrame(args json.RawMessage) (interface{}, error) {
	var a segmentFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	frame, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	masks := map[string]*imaging.Mask{}
	switch a.Mode {
	case "top":
		m, err := s.session.Top.Segmenter.Top(frame)
		if err != nil {
			return nil, err
		}
		masks["top"] = m
	case "side":
		sm, err := s.session.Height.Segmenter.Side(frame)
		if err != nil {
			return nil, err
		}
		masks["reference"] = sm.Reference
		masks["object"] = sm.Object
	default:
		return nil, fmt.Errorf("invalid mode %q: must be top or side", a.Mode)
	}

	result := &SegmentResult{
		Mode:   a.Mode,
		Masks:  make(map[string]*imaging.EncodedImage, len(masks)),
		Counts: make(map[string]int, len(masks)),
	}
	for name, m := range masks {
		enc, err := imaging.EncodePNG(m.ToGray(), 1.0)
		if err != nil {
			return nil, err
		}
		result.Masks[name] = enc
		result.Counts[name] = m.Count()
	}
	return result, nil
}

type sampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}
