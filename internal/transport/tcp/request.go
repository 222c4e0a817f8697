package tcp

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/turnrelay/internal/apperror"
)

// Request is the part of an inbound request the relay looks at. Headers and
// bodies are ignored and query values are kept exactly as sent.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
}

// ParseRequest reads the request line of raw. A query pair that does not
// contain exactly one '=' is dropped; a repeated key keeps its last value.
func ParseRequest(raw string) (*Request, error) {
	line, _, _ := strings.Cut(raw, "\n")
	line = strings.TrimSuffix(line, "\r")

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", apperror.ErrMalformedRequest, line)
	}

	path, rawQuery, _ := strings.Cut(fields[1], "?")

	return &Request{
		Method: fields[0],
		Path:   path,
		Query:  parseQuery(rawQuery),
	}, nil
}

func parseQuery(rawQuery string) map[string]string {
	params := make(map[string]string)

	for _, pair := range strings.Split(rawQuery, "&") {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			continue
		}

		params[kv[0]] = kv[1]
	}

	return params
}

// Param returns the raw value of a query parameter, empty when absent.
func (that *Request) Param(name string) string {
	return that.Query[name]
}
