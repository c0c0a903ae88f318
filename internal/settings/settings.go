// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package settings enumerates the settings recognized by dataserve and
// implements the merge rules for directory-provided and caller-provided
// values. The resolver treats the merged map as opaque key/value pairs;
// typed access happens through View.
package settings

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// defaults enumerates every recognized setting with its default value.
// Keys absent from this map are rejected at startup.
var defaults = map[string]any{
	"default_page_size":   100,
	"max_returned_rows":   1000,
	"sql_time_limit_ms":   1000,
	"default_cache_ttl":   5,
	"allow_download":      true,
	"allow_facet":         true,
	"suggest_facets":      true,
	"default_facet_size":  30,
	"truncate_cells_html": 2048,
	"force_https_urls":    false,
	"template_debug":      false,
	"base_url":            "/",
}

// Defaults returns a fresh copy of the recognized settings with their
// default values.
func Defaults() map[string]any {
	out := make(map[string]any, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	return out
}

// IsRecognized reports whether name is a known setting.
func IsRecognized(name string) bool {
	_, ok := defaults[name]
	return ok
}

// Merge overlays file-provided values and caller-provided overrides on the
// defaults. Overlay order is defaults, then file, then overrides; later
// values win key by key and the inputs are never mutated.
func Merge(file map[string]any, overrides map[string]any) map[string]any {
	merged := Defaults()
	for k, v := range file {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Validate rejects settings maps containing unrecognized keys. The error
// lists every offending key so the operator can fix all of them at once.
func Validate(m map[string]any) error {
	var unknown []string
	for k := range m {
		if !IsRecognized(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	if len(unknown) == 1 {
		return fmt.Errorf("invalid setting %q (not a recognized setting)", unknown[0])
	}
	return fmt.Errorf("invalid settings %v (not recognized settings)", unknown)
}

// Coerce converts a command-line setting value into the type the merge
// layer expects: integers and booleans are recognized, everything else
// stays a string.
func Coerce(value string) any {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	switch value {
	case "true", "True":
		return true
	case "false", "False":
		return false
	}
	return value
}

// View provides typed read access over a merged settings map.
// Values of the wrong type fall back to the default for that setting.
type View struct {
	m map[string]any
}

// NewView wraps a merged settings map. The map is used as-is and must not
// be mutated afterwards.
func NewView(m map[string]any) *View {
	if m == nil {
		m = Defaults()
	}
	return &View{m: m}
}

// Map returns a copy of the underlying settings map.
func (v *View) Map() map[string]any {
	out := make(map[string]any, len(v.m))
	for k, val := range v.m {
		out[k] = val
	}
	return out
}

// Int returns the named setting as an int, falling back to the default
// when the configured value is missing or not numeric.
func (v *View) Int(name string) int {
	if got, ok := asInt(v.m[name]); ok {
		return got
	}
	got, _ := asInt(defaults[name])
	return got
}

// Bool returns the named setting as a bool, falling back to the default.
func (v *View) Bool(name string) bool {
	if got, ok := v.m[name].(bool); ok {
		return got
	}
	got, _ := defaults[name].(bool)
	return got
}

// String returns the named setting as a string, falling back to the default.
func (v *View) String(name string) string {
	if got, ok := v.m[name].(string); ok {
		return got
	}
	got, _ := defaults[name].(string)
	return got
}

// DefaultPageSize returns the page size for table browsing.
func (v *View) DefaultPageSize() int { return v.Int("default_page_size") }

// MaxReturnedRows caps the number of rows a single request may return.
func (v *View) MaxReturnedRows() int { return v.Int("max_returned_rows") }

// SQLTimeLimit returns the per-query time budget.
func (v *View) SQLTimeLimit() time.Duration {
	return time.Duration(v.Int("sql_time_limit_ms")) * time.Millisecond
}

// CacheTTL returns the max-age, in seconds, applied to cacheable responses.
func (v *View) CacheTTL() int { return v.Int("default_cache_ttl") }

// AllowDownload reports whether raw database downloads are permitted.
func (v *View) AllowDownload() bool { return v.Bool("allow_download") }

// BaseURL returns the configured URL prefix the application is served under.
func (v *View) BaseURL() string { return v.String("base_url") }

// asInt normalizes the numeric types produced by the YAML and JSON
// decoders. JSON documents decode numbers as float64, YAML as
// int/int64/uint64. Values outside the int range are rejected rather
// than wrapped.
func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		// float64(math.MaxInt) rounds up, so the upper bound is exclusive.
		if n < math.MinInt || n >= math.MaxInt {
			return 0, false
		}
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
