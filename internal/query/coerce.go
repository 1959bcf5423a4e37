package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"resdir/internal/apierror"
	"resdir/internal/models"
)

// ValueAsIntegerList expands a comma-separated list of integers and
// inclusive hyphen ranges, e.g. "1,3,5-7" yields [1 3 5 6 7]. Duplicates and
// input order are preserved; callers that need a unique set use
// UniqueSortedIDs instead.
func ValueAsIntegerList(value string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, apierror.BadRequest("Invalid integer list: '%s'", value)
		}
		// A hyphen past the first byte is a range separator; a leading
		// hyphen is a sign.
		if idx := strings.Index(part[1:], "-"); idx >= 0 {
			lo, err := strconv.ParseInt(part[:idx+1], 10, 64)
			if err != nil {
				return nil, apierror.BadRequest("Invalid integer list: '%s'", value)
			}
			hi, err := strconv.ParseInt(part[idx+2:], 10, 64)
			if err != nil || hi < lo {
				return nil, apierror.BadRequest("Invalid integer list: '%s'", value)
			}
			for v := lo; v <= hi; v++ {
				out = append(out, v)
			}
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, apierror.BadRequest("Invalid integer list: '%s'", value)
		}
		out = append(out, v)
	}
	return out, nil
}

// UniqueSortedIDs sorts and deduplicates an id list in place semantics.
// This is the aggregation helper used for namespace id sets; it is
// deliberately not the same behavior as ValueAsIntegerList.
func UniqueSortedIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dst := out[:1]
	for _, v := range out[1:] {
		if v != dst[len(dst)-1] {
			dst = append(dst, v)
		}
	}
	return dst
}

// ValueAsDateList parses comma-separated RFC3339 timestamps.
func ValueAsDateList(value string) ([]time.Time, error) {
	var out []time.Time
	for _, part := range strings.Split(value, ",") {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(part))
		if err != nil {
			return nil, apierror.BadRequest("Invalid date list: '%s'", value)
		}
		out = append(out, t)
	}
	return out, nil
}

// ValueAsBoolean accepts "true" or "false", case-insensitively.
func ValueAsBoolean(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, apierror.BadRequest("Invalid boolean: '%s'", value)
}

// ValueAsPermissions parses a comma-separated list of permission names.
func ValueAsPermissions(value string) ([]models.Permission, error) {
	var out []models.Permission
	for _, part := range strings.Split(value, ",") {
		p, err := models.ParsePermission(strings.TrimSpace(part))
		if err != nil {
			return nil, apierror.BadRequest("Invalid permission list: '%s'", value)
		}
		out = append(out, p)
	}
	return out, nil
}
