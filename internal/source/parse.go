// Package source turns the remote candidate document into a CandidateSet.
package source

import (
	"bytes"
	"encoding/json"
	"errors"

	"example.com/hostspin/internal/domain"
	"example.com/hostspin/internal/model"
)

// ErrParse is returned when the document is neither a JSON array nor a
// JSON object.
var ErrParse = errors.New("malformed data source")

// Parse accepts two shapes:
//
//	[["1.2.3.4", "github.com"], ["5.6.7.8", "github.com"]]
//	{"github.com": ["1.2.3.4", "5.6.7.8"]}
//
// Entries that do not fit the shape are skipped; the data source is
// crowd-sourced and only the top-level shape is enforced. A domain key
// must be a single hostname, since it is written verbatim to the hosts
// file.
func Parse(raw []byte) (model.CandidateSet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrParse
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.Join(ErrParse, err)
		}
		return parsePairs(items), nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, errors.Join(ErrParse, err)
		}
		return parseObject(obj), nil
	default:
		return nil, ErrParse
	}
}

func parsePairs(items []json.RawMessage) model.CandidateSet {
	out := model.CandidateSet{}
	for _, item := range items {
		var pair []json.RawMessage
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			continue
		}
		ip, ok := asString(pair[0])
		if !ok || ip == "" {
			continue
		}
		key, ok := asString(pair[1])
		if !ok || !domain.ValidKey(key) {
			continue
		}
		out[key] = append(out[key], ip)
	}
	return out
}

func parseObject(obj map[string]json.RawMessage) model.CandidateSet {
	out := model.CandidateSet{}
	for key, v := range obj {
		if !domain.ValidKey(key) {
			continue
		}
		var values []json.RawMessage
		if err := json.Unmarshal(v, &values); err != nil {
			// not a list: the domain stays, with nothing to probe
			out[key] = nil
			continue
		}
		ips := make([]string, 0, len(values))
		for _, val := range values {
			if ip, ok := asString(val); ok && ip != "" {
				ips = append(ips, ip)
			}
		}
		out[key] = ips
	}
	return out
}

func asString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
