package service

import (
	"encoding/json"
	"strconv"
)

// wrapperFields are the conventional field names under which upstreams nest
// the season record array, probed in order.
var wrapperFields = []string{"data", "seasons", "result", "items"}

// zeroBody is the miss result: the literal JSON number 0, so downstream
// arithmetic can consume "no data for this season" directly.
var zeroBody = []byte("0")

// SelectSeason locates the record for the target season in an upstream body.
//
// The upstream body takes one of three shapes: a bare array of season
// records, a wrapper object nesting the array under a conventional field,
// or a single season record. All three are normalized into one record list
// before the linear scan.
//
// Returns the replacement body, whether a record matched, and whether the
// body was replaced at all. A non-JSON body is left untouched (ok=false):
// availability wins over strict typing, the caller relays it verbatim.
func SelectSeason(body []byte, target int) (out []byte, match bool, ok bool) {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, false
	}

	// A single record already at the target season is returned as-is.
	if obj, isObj := parsed.(map[string]any); isObj {
		if n, found := seasonOf(obj); found && n == target {
			return marshalRecord(obj, body)
		}
	}

	for _, rec := range normalizeRecords(parsed) {
		if n, found := seasonOf(rec); found && n == target {
			return marshalRecord(rec, body)
		}
	}

	return zeroBody, false, true
}

// normalizeRecords flattens the three accepted upstream shapes into a list
// of season records. Unrecognized shapes yield an empty list, which the
// caller treats as a miss.
func normalizeRecords(parsed any) []map[string]any {
	switch v := parsed.(type) {
	case []any:
		return recordsFromArray(v)
	case map[string]any:
		for _, field := range wrapperFields {
			if arr, isArr := v[field].([]any); isArr {
				return recordsFromArray(arr)
			}
		}
		// Single record object.
		if _, found := seasonOf(v); found {
			return []map[string]any{v}
		}
	}
	return nil
}

func recordsFromArray(arr []any) []map[string]any {
	records := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if rec, isObj := el.(map[string]any); isObj {
			records = append(records, rec)
		}
	}
	return records
}

// seasonOf reads a record's season field coerced to an integer. Upstreams
// emit it as a JSON number or a numeric string depending on revision.
func seasonOf(rec map[string]any) (int, bool) {
	switch v := rec["season"].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// marshalRecord re-encodes the matched record. Encoding a value that just
// came out of json.Unmarshal cannot fail; the fallback relays the original
// body rather than erroring.
func marshalRecord(rec map[string]any, original []byte) ([]byte, bool, bool) {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return original, true, false
	}
	return encoded, true, true
}
