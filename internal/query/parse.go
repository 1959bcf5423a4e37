package query

import (
	"strconv"
	"strings"

	"resdir/internal/apierror"
)

// ParsedQueryParam is one parsed filter term. Params are never persisted;
// they live for the duration of a single request.
type ParsedQueryParam struct {
	Field    string
	Operator SearchOperator
	Value    string
}

// Options carries the non-filter keys a listing endpoint understands.
type Options struct {
	Sort  []SortField
	Limit int
}

// SortField is one "field" or "-field" entry from a sort key.
type SortField struct {
	Field      string
	Descending bool
}

// Parse turns a raw query string into filter params, one per &-separated
// term, in term order. Grammar: field[__operator]=value, operator optionally
// prefixed not_. Percent-decoding is the transport's job, not ours.
func Parse(raw string) ([]ParsedQueryParam, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	terms := strings.Split(raw, "&")
	params := make([]ParsedQueryParam, 0, len(terms))
	for _, term := range terms {
		p, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func parseTerm(term string) (ParsedQueryParam, error) {
	parts := strings.Split(term, "=")
	if len(parts) != 2 {
		return ParsedQueryParam{}, apierror.BadRequest("Invalid query parameter: '%s'", term)
	}
	key, value := parts[0], parts[1]
	if value == "" {
		return ParsedQueryParam{}, apierror.BadRequest("Invalid query parameter: '%s' (no value)", term)
	}

	field := key
	opToken := string(OpEquals)
	if idx := strings.Index(key, "__"); idx >= 0 {
		field = key[:idx]
		opToken = key[idx+2:]
	}
	if field == "" {
		return ParsedQueryParam{}, apierror.BadRequest("Invalid query parameter: '%s'", term)
	}

	op, err := ParseOperator(opToken)
	if err != nil {
		return ParsedQueryParam{}, err
	}
	return ParsedQueryParam{Field: field, Operator: op, Value: value}, nil
}

// ParseQuery extracts the reserved sort and limit keys, then parses the
// remaining terms as filters.
func ParseQuery(raw string) ([]ParsedQueryParam, Options, error) {
	var opts Options
	if strings.TrimSpace(raw) == "" {
		return nil, opts, nil
	}
	var filterTerms []string
	for _, term := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(term, "=")
		switch {
		case found && key == "sort":
			for _, f := range strings.Split(value, ",") {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				sf := SortField{Field: f}
				if strings.HasPrefix(f, "-") {
					sf = SortField{Field: f[1:], Descending: true}
				}
				opts.Sort = append(opts.Sort, sf)
			}
		case found && key == "limit":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, opts, apierror.BadRequest("Invalid query parameter: '%s'", term)
			}
			opts.Limit = n
		default:
			filterTerms = append(filterTerms, term)
		}
	}
	params, err := Parse(strings.Join(filterTerms, "&"))
	return params, opts, err
}
