package xodr2net

import (
	"fmt"

	"go.uber.org/zap"
)

type Parser struct {
	filename           string
	curveResolution    float64
	minWidth           float64
	minWidthSpacing    float64
	importAllLaneTypes bool
	ignoreWidths       bool
	internalShapes     bool
	verbose            bool
	defaultSignalType  string
	objectOutput       string
	log                *zap.Logger
}

func (parser *Parser) String() string {
	return fmt.Sprintf(`
Network parser parameters:
	filename: '%s'
	curve_resolution: %f
	min_width: %f
	min_width_spacing: %f
	import_all_lane_types?: %t
	ignore_widths?: %t
	internal_shapes?: %t
	verbose?: %t
	default_signal_type: '%s'
	object_output: '%s'
	`,
		parser.filename,
		parser.curveResolution,
		parser.minWidth,
		parser.minWidthSpacing,
		parser.importAllLaneTypes,
		parser.ignoreWidths,
		parser.internalShapes,
		parser.verbose,
		parser.defaultSignalType,
		parser.objectOutput,
	)
}

func NewParser(fileName string, options ...func(*Parser)) *Parser {
	parser := &Parser{
		filename:          fileName,
		curveResolution:   2.0,
		minWidth:          1.8,
		defaultSignalType: "static",
		log:               zap.NewNop(),
	}
	for _, option := range options {
		option(parser)
	}
	if parser.minWidthSpacing <= 0 {
		parser.minWidthSpacing = parser.curveResolution
	}
	return parser
}

// WithCurveResolution sets the sampling step (meters) for curved geometry primitives
func WithCurveResolution(curveResolution float64) func(*Parser) {
	return func(parser *Parser) {
		parser.curveResolution = curveResolution
	}
}

// WithMinWidth sets the width (meters) below which a vehicular lane is considered
// unusable. Zero disables width based section splitting
func WithMinWidth(minWidth float64) func(*Parser) {
	return func(parser *Parser) {
		parser.minWidth = minWidth
	}
}

// WithMinWidthSpacing sets the minimum distance between width based section
// splits. Defaults to the curve resolution
func WithMinWidthSpacing(minWidthSpacing float64) func(*Parser) {
	return func(parser *Parser) {
		parser.minWidthSpacing = minWidthSpacing
	}
}

// WithImportAllLaneTypes makes the parser keep lanes of unknown or discarded types
func WithImportAllLaneTypes(importAllLaneTypes bool) func(*Parser) {
	return func(parser *Parser) {
		parser.importAllLaneTypes = importAllLaneTypes
	}
}

// WithIgnoreWidths makes every lane take the default width of its type
func WithIgnoreWidths(ignoreWidths bool) func(*Parser) {
	return func(parser *Parser) {
		parser.ignoreWidths = ignoreWidths
	}
}

// WithInternalShapes makes resolved junction connections carry the geometry of
// the roads inside the junction
func WithInternalShapes(internalShapes bool) func(*Parser) {
	return func(parser *Parser) {
		parser.internalShapes = internalShapes
	}
}

func WithVerbose(verbose bool) func(*Parser) {
	return func(parser *Parser) {
		parser.verbose = verbose
	}
}

// WithDefaultSignalType sets the control type recorded on signalised nodes
func WithDefaultSignalType(defaultSignalType string) func(*Parser) {
	return func(parser *Parser) {
		parser.defaultSignalType = defaultSignalType
	}
}

// WithObjectOutput sets a GeoJSON file to export roadside objects to
func WithObjectOutput(objectOutput string) func(*Parser) {
	return func(parser *Parser) {
		parser.objectOutput = objectOutput
	}
}

// WithLogger sets the structured logger for diagnostics
func WithLogger(log *zap.Logger) func(*Parser) {
	return func(parser *Parser) {
		parser.log = log
	}
}
