package dedup

import (
	"net/url"
	"regexp"
	"strings"
)

// placeIDPattern matches Google Maps' compound data parameter's place
// identifier segment, e.g. "...!1s0x0:0xabc123!...".
var placeIDPattern = regexp.MustCompile(`1s[^!]+!`)

// Normalize reduces a listing/detail URL to the minimal form that
// identifies the same place: origin + path, plus either the reduced
// place-identifier data parameter or the raw data parameter verbatim.
// The data parameter is read from the query string or, failing that,
// from a "/data=" path segment (Google Maps' place-URL form), in which
// case that segment and any "/@lat,lng,zoom" segment are cut from the path.
// Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := parsed.Path
	data := parsed.Query().Get("data")
	if data == "" {
		if i := strings.Index(path, "/data="); i >= 0 {
			data = path[i+len("/data="):]
			path = path[:i]
			if j := strings.Index(path, "/@"); j >= 0 {
				path = path[:j]
			}
		}
	}
	base := parsed.Scheme + "://" + parsed.Host + path
	if data == "" {
		return base
	}

	if match := placeIDPattern.FindString(data); match != "" {
		return base + "?data=!4m7!3m6!" + match
	}
	return base + "?data=" + data
}
