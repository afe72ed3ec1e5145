package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/platinummonkey/veil/pkg/httputil"
)

// QueryHandler serves the audit trail query API. Filters come from query
// parameters: action, actor, job_id, since, until (RFC 3339), limit,
// offset.
func QueryHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromRequest(r)
		if err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}

		events, err := store.Query(r.Context(), filter)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		if events == nil {
			events = []*Event{}
		}
		httputil.WriteSuccess(w, map[string]interface{}{
			"events": events,
			"count":  len(events),
		})
	}
}

func filterFromRequest(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		Action: Action(q.Get("action")),
		Actor:  q.Get("actor"),
		JobID:  q.Get("job_id"),
	}

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, err
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, err
		}
		filter.Until = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, err
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Filter{}, err
		}
		filter.Offset = n
	}
	return filter, nil
}
