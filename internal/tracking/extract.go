package tracking

import (
	"encoding/json"
	"strings"
)

// Request is the generic inbound invocation shape the extractor works over.
// HTTP handlers populate Headers/QueryParams/Body; worker-style invocations
// put identifying values straight into Fields. Every part is optional.
type Request struct {
	Headers     map[string]string
	QueryParams map[string]string
	// Body is either a raw string (possibly JSON) or an already-decoded
	// map. Anything else is ignored.
	Body       any
	Authorizer map[string]any
	Fields     map[string]any
}

// lookupFn returns a value for one source, or "" when the source does not
// carry it. Extraction iterates a fixed, ordered list of these — no
// reflection, no errors.
type lookupFn func(*Request) string

// ExtractClientID resolves the tenant identifier from the request, checking
// headers, query parameters, body, authorizer context, then direct fields.
// Returns "" when no source carries it; absence is not an error here.
func ExtractClientID(req *Request) string {
	return firstMatch(req,
		headerLookup("x-client-id", "client-id"),
		queryLookup("clientId"),
		bodyLookup("clientId"),
		authorizerLookup("clientId"),
		fieldLookup("clientId"),
	)
}

// ExtractPreviousEventID resolves the causal predecessor id. Same source
// order as ExtractClientID minus the authorizer context.
func ExtractPreviousEventID(req *Request) string {
	return firstMatch(req,
		headerLookup("x-previous-event-id", "previous-event-id"),
		queryLookup("previousEventId"),
		bodyLookup("previousEventId"),
		fieldLookup("previousEventId"),
	)
}

func firstMatch(req *Request, lookups ...lookupFn) string {
	if req == nil {
		return ""
	}
	for _, lookup := range lookups {
		if v := lookup(req); v != "" {
			return v
		}
	}
	return ""
}

// headerLookup matches any of the given header names case-insensitively.
func headerLookup(names ...string) lookupFn {
	return func(req *Request) string {
		for key, val := range req.Headers {
			lower := strings.ToLower(key)
			for _, name := range names {
				if lower == name && val != "" {
					return val
				}
			}
		}
		return ""
	}
}

func queryLookup(name string) lookupFn {
	return func(req *Request) string {
		return req.QueryParams[name]
	}
}

// bodyLookup decodes a string body as JSON on demand; decode failures are
// swallowed, extraction stays best-effort.
func bodyLookup(name string) lookupFn {
	return func(req *Request) string {
		var obj map[string]any
		switch body := req.Body.(type) {
		case string:
			if json.Unmarshal([]byte(body), &obj) != nil {
				return ""
			}
		case []byte:
			if json.Unmarshal(body, &obj) != nil {
				return ""
			}
		case map[string]any:
			obj = body
		default:
			return ""
		}
		if v, ok := obj[name].(string); ok {
			return v
		}
		return ""
	}
}

func authorizerLookup(name string) lookupFn {
	return func(req *Request) string {
		if v, ok := req.Authorizer[name].(string); ok {
			return v
		}
		return ""
	}
}

func fieldLookup(name string) lookupFn {
	return func(req *Request) string {
		if v, ok := req.Fields[name].(string); ok {
			return v
		}
		return ""
	}
}
