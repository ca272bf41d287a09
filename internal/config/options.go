// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerationOptions are per-invocation generation overrides. A nil field
// keeps the configured value.
type GenerationOptions struct {
	MaxNewTokens *int
	Temperature  *float64
	DoSample     *bool
	TopK         *int
	Seed         *int64
}

// Empty reports whether no option is set.
func (o GenerationOptions) Empty() bool {
	return o.MaxNewTokens == nil && o.Temperature == nil && o.DoSample == nil &&
		o.TopK == nil && o.Seed == nil
}

// ParseGenerationOptions parses a query-string style option list such as
// "max_new_tokens=64&temperature=0.2&do_sample=false&top_k=40&seed=7".
// Unknown keys, repeated keys and malformed values are errors.
func ParseGenerationOptions(s string) (GenerationOptions, error) {
	var opts GenerationOptions
	s = strings.TrimSpace(s)
	if s == "" {
		return opts, nil
	}

	values, err := url.ParseQuery(s)
	if err != nil {
		return opts, fmt.Errorf("invalid generation options %q: %w", s, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := values[key]
		if len(vals) > 1 {
			return opts, fmt.Errorf("generation option %q given %d times", key, len(vals))
		}
		val := strings.TrimSpace(vals[0])

		switch key {
		case "max_new_tokens":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 || n > maxNewTokensLimit {
				return opts, optionError(key, val, fmt.Sprintf("an integer between 1 and %d", maxNewTokensLimit))
			}
			opts.MaxNewTokens = &n
		case "temperature":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 || f > maxTemperature {
				return opts, optionError(key, val, fmt.Sprintf("a number between 0 and %g", maxTemperature))
			}
			opts.Temperature = &f
		case "do_sample":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return opts, optionError(key, val, "true or false")
			}
			opts.DoSample = &b
		case "top_k":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return opts, optionError(key, val, "a non-negative integer")
			}
			opts.TopK = &n
		case "seed":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return opts, optionError(key, val, "an integer")
			}
			opts.Seed = &n
		default:
			return opts, fmt.Errorf("unknown generation option %q", key)
		}
	}
	return opts, nil
}

func optionError(key, val, want string) error {
	return fmt.Errorf("generation option %s=%q: must be %s", key, val, want)
}

// ApplyGenerationOptions copies every set option into the local settings.
func (c *Config) ApplyGenerationOptions(o GenerationOptions) {
	if o.MaxNewTokens != nil {
		c.Local.MaxNewTokens = *o.MaxNewTokens
	}
	if o.Temperature != nil {
		c.Local.Temperature = *o.Temperature
	}
	if o.DoSample != nil {
		c.Local.DoSample = *o.DoSample
	}
	if o.TopK != nil {
		c.Local.TopK = *o.TopK
	}
	if o.Seed != nil {
		c.Local.Seed = *o.Seed
	}
}
