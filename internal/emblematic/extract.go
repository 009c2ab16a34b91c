package emblematic

// Shape-tolerant field extractors. The feed wraps single related entities as
// either a bare object or a one-element array depending on the endpoint, ships
// numbers as strings, and nests scalar attributes inside named {name, value}
// arrays. Everything here is total: malformed input degrades to the zero value,
// it never panics and never returns an error.

import (
	"encoding/json"
	"strconv"
	"strings"
)

// decodeAny unmarshals a deferred JSON fragment into a generic value.
// Absent or invalid fragments decode to nil.
func decodeAny(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// firstOrSelf resolves the feed's object-or-array ambiguity: take the first
// element if the value is an array, the value itself otherwise, nil if the
// array is empty.
func firstOrSelf(v interface{}) interface{} {
	if arr, ok := v.([]interface{}); ok {
		if len(arr) == 0 {
			return nil
		}
		return arr[0]
	}
	return v
}

// numeric coerces a number or numeric string into a float64.
// Arrays, objects, booleans, null and non-numeric strings are absent.
func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// namedValue returns the numeric value of the first entry whose name exactly
// equals target. Zero-valued entries count as absent, matching how the feed
// fills unreported attributes.
func namedValue(entries []featureEntry, target string) (float64, bool) {
	for _, e := range entries {
		if e.Name != target {
			continue
		}
		if v, ok := numeric(e.Value); ok && v != 0 {
			return v, true
		}
	}
	return 0, false
}

// localizedText resolves a multilingual text field: plain strings pass
// through, objects prefer Spanish then English, anything else is empty.
func localizedText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if s, ok := t["es"].(string); ok && s != "" {
			return s
		}
		if s, ok := t["en"].(string); ok {
			return s
		}
		return ""
	default:
		return ""
	}
}

// resolveAddress decodes the offer's address field into its bare object form,
// unwrapping the one-element array variant. Returns nil when absent or
// malformed.
func resolveAddress(raw json.RawMessage) map[string]interface{} {
	addr, _ := firstOrSelf(decodeAny(raw)).(map[string]interface{})
	return addr
}

// addressComponent pulls the name of a nested address component (city, zone,
// region, country). The component itself may again be an object or a
// one-element array. Empty string on any malformed level.
func addressComponent(addr map[string]interface{}, key string) string {
	if addr == nil {
		return ""
	}
	comp, ok := firstOrSelf(addr[key]).(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := comp["name"].(string)
	return name
}

// descriptorURL picks the first non-empty string among the given keys of a
// media descriptor object.
func descriptorURL(desc map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := desc[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// mediaURLs resolves a media field (string array, descriptor array, single
// descriptor, single string, or absent) into an ordered URL list, using the
// given descriptor key preference. Empty entries are dropped.
func mediaURLs(raw json.RawMessage, keys ...string) []string {
	urls := []string{}
	v := decodeAny(raw)
	if v == nil {
		return urls
	}
	items, ok := v.([]interface{})
	if !ok {
		items = []interface{}{v}
	}
	for _, item := range items {
		switch m := item.(type) {
		case string:
			if m != "" {
				urls = append(urls, m)
			}
		case map[string]interface{}:
			if u := descriptorURL(m, keys...); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

// imageURLs prefers the pre-sized 800x600 variant over the original upload.
func imageURLs(raw json.RawMessage) []string {
	return mediaURLs(raw, "thumb_800_600", "url", "original")
}

func videoURLs(raw json.RawMessage) []string {
	return mediaURLs(raw, "url", "video_url", "src", "link")
}

// resolveFeatures decodes the features field into its object form. On some
// endpoints features is a bare count instead of an object; that decodes to an
// empty feature set.
func resolveFeatures(raw json.RawMessage) rawFeatures {
	var f rawFeatures
	if len(raw) == 0 {
		return f
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return rawFeatures{}
	}
	return f
}

// featureBool reports whether the named flag is explicitly true in
// more_features or qualities, in that order. The feed gives no way to tell
// "explicitly false" from "not reported": both come back false here. That
// loss is intentional and pinned by a test.
func featureBool(f rawFeatures, name string) bool {
	for _, section := range [][]featureEntry{f.MoreFeatures, f.Qualities} {
		for _, e := range section {
			if e.Name == name {
				b, ok := e.Value.(bool)
				return ok && b
			}
		}
	}
	return false
}

// rawNumeric extracts a number from a deferred scalar field (energy ratings,
// video counts).
func rawNumeric(raw json.RawMessage) (float64, bool) {
	return numeric(decodeAny(raw))
}
