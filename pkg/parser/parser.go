package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Ruscigno/MarketPulse/pkg/model"
	"github.com/Ruscigno/MarketPulse/pkg/vendors"
	"go.uber.org/zap"
)

// Parser turns raw vendor JSON into normalized results, driven
// entirely by the vendor's declarative response mapping. No mapping
// failure is fatal: a partial result is a valid result.
type Parser struct {
	logger *zap.Logger
}

// New creates a new response parser.
func New(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse maps rawBody onto the result variant registered for the
// request's data type, using the vendor's response configuration.
// It fails only when the vendor has no endpoint for the data type,
// the body is not valid JSON, or the data type is unregistered.
func (p *Parser) Parse(cfg *vendors.VendorConfig, req model.MarketDataRequest, rawBody []byte) (model.MarketDataResult, error) {
	ep, ok := cfg.EndpointFor(req.Type)
	if !ok {
		return nil, fmt.Errorf("vendor %s has no endpoint for data type %s", cfg.VendorName, req.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(rawBody))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse vendor response as JSON: %w", err)
	}

	result, ok := model.NewResult(req.Type)
	if !ok {
		return nil, fmt.Errorf("no result variant registered for data type %s", req.Type)
	}
	base := result.Base()
	base.Vendor = cfg.VendorName
	base.Type = req.Type
	base.RawJSON = string(rawBody)

	root := p.resolveRoot(doc, ep.Response.RootPath, cfg.VendorName)

	if key := ep.Response.TimestampKey; key != "" {
		if v, ok := lookupPath(root, key); ok {
			if s, ok := stringifyScalar(v); ok {
				if ts, err := parseTimestamp(s); err == nil {
					base.Timestamp = &ts
				}
			}
		}
	}

	for target, paths := range ep.Response.FieldMappings {
		setter, ok := model.FieldFor(req.Type, target)
		if !ok {
			p.logger.Debug("Skipping unmapped target field",
				zap.String("vendor", cfg.VendorName),
				zap.String("field", target))
			continue
		}
		value, ok := firstValue(root, paths)
		if !ok {
			continue
		}
		coerced, err := coerce(setter.Kind, value)
		if err != nil {
			p.logger.Debug("Skipping field after conversion failure",
				zap.String("vendor", cfg.VendorName),
				zap.String("field", target),
				zap.String("value", value),
				zap.Error(err))
			continue
		}
		setter.Set(result, coerced)
	}

	if series, ok := result.(*model.OhlcvSeriesDto); ok {
		p.fillSeries(series, root, ep, req)
	}

	return result, nil
}

// resolveRoot walks the configured dot-separated root path. When any
// segment cannot be resolved the untouched document root is used.
func (p *Parser) resolveRoot(doc interface{}, rootPath, vendor string) interface{} {
	if rootPath == "" {
		return doc
	}
	node, ok := lookupPath(doc, rootPath)
	if !ok {
		p.logger.Debug("Root path not found, using document root",
			zap.String("vendor", vendor),
			zap.String("rootPath", rootPath))
		return doc
	}
	return node
}

// fillSeries builds the bar list of an OHLCV series result. The
// resolved root is expected to be an object keyed by bar timestamps,
// each value holding the bar's fields addressed by the open/high/low/
// close/volume mappings.
func (p *Parser) fillSeries(series *model.OhlcvSeriesDto, root interface{}, ep *vendors.EndpointConfig, req model.MarketDataRequest) {
	if series.Granularity == "" {
		series.Granularity = req.Parameter("interval")
	}
	if series.Adjustment == "" {
		series.Adjustment = req.Parameter("adjustment")
	}

	obj, ok := root.(map[string]interface{})
	if !ok {
		return
	}
	barPath := func(field string) vendors.PathList {
		if paths, ok := ep.Response.FieldMappings[field]; ok {
			return paths
		}
		return nil
	}
	openPaths := barPath("open")
	highPaths := barPath("high")
	lowPaths := barPath("low")
	closePaths := barPath("close")
	volumePaths := barPath("volume")

	bars := make([]model.OhlcvBar, 0, len(obj))
	for key, node := range obj {
		ts, err := parseTimestamp(key)
		if err != nil {
			continue
		}
		bar := model.OhlcvBar{TsUTC: ts}
		assigned := 0
		if v, ok := firstValue(node, openPaths); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				bar.Open = f
				assigned++
			}
		}
		if v, ok := firstValue(node, highPaths); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				bar.High = f
				assigned++
			}
		}
		if v, ok := firstValue(node, lowPaths); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				bar.Low = f
				assigned++
			}
		}
		if v, ok := firstValue(node, closePaths); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				bar.Close = f
				assigned++
			}
		}
		if v, ok := firstValue(node, volumePaths); ok {
			if n, err := coerceInt64(v); err == nil {
				bar.Volume = &n
			}
		}
		if assigned == 0 {
			continue
		}
		if !withinRange(ts, req.Range) {
			series.Partial = true
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].TsUTC.Before(bars[j].TsUTC) })
	series.Bars = bars

	if series.Timestamp == nil && len(bars) > 0 {
		last := bars[len(bars)-1].TsUTC
		series.Timestamp = &last
	}
}

// firstValue resolves the first candidate path yielding a non-empty
// scalar value.
func firstValue(node interface{}, paths vendors.PathList) (string, bool) {
	for _, path := range paths {
		v, ok := lookupPath(node, path)
		if !ok {
			continue
		}
		if s, ok := stringifyScalar(v); ok {
			return s, true
		}
	}
	return "", false
}

// lookupPath walks a dot-separated path through the decoded document.
// Object keys match case-insensitively; a numeric segment indexes into
// an array.
func lookupPath(node interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	current := node
	for _, segment := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]interface{}:
			child, ok := lookupKey(typed, segment)
			if !ok {
				return nil, false
			}
			current = child
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, false
			}
			current = typed[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func lookupKey(obj map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// stringifyScalar renders a scalar JSON value as a non-empty string.
func stringifyScalar(v interface{}) (string, bool) {
	switch typed := v.(type) {
	case string:
		s := strings.TrimSpace(typed)
		return s, s != ""
	case json.Number:
		return typed.String(), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

// coerce converts the extracted string to the setter's declared kind.
func coerce(kind model.FieldKind, s string) (interface{}, error) {
	switch kind {
	case model.FieldString:
		return s, nil
	case model.FieldBool:
		return strconv.ParseBool(s)
	case model.FieldInt64:
		return coerceInt64(s)
	case model.FieldFloat64:
		return strconv.ParseFloat(s, 64)
	case model.FieldTime:
		return parseTimestamp(s)
	default:
		return nil, fmt.Errorf("unsupported field kind %d", kind)
	}
}

// coerceInt64 parses an integer, tolerating vendors that render whole
// numbers with a fractional part ("1234.0").
func coerceInt64(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	n := int64(f)
	if float64(n) != f {
		return 0, fmt.Errorf("value %s is not an integer", s)
	}
	return n, nil
}

func withinRange(ts time.Time, r model.TimeRange) bool {
	if r.Start != nil && ts.Before(*r.Start) {
		return false
	}
	if r.End != nil && ts.After(*r.End) {
		return false
	}
	return true
}
