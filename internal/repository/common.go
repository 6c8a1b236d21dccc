package repository

import (
	"database/sql"
	"net/url"
)

// errNoRowsAffected signals an UPDATE or DELETE that matched nothing. It is
// sql.ErrNoRows so callers can translate it to a not-found error uniformly.
var errNoRowsAffected = sql.ErrNoRows

// withoutSchoolParam returns a copy of params with any client-supplied
// school_id removed. For scoped callers the resolved scope is the only
// authority over the tenant filter; the client value is discarded, never
// intersected.
func withoutSchoolParam(params url.Values) url.Values {
	out := url.Values{}
	for key, values := range params {
		if key == "school_id" {
			continue
		}
		out[key] = values
	}
	return out
}
