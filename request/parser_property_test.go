package request

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var nameGen = gen.RegexMatch(`[A-Za-z0-9-]{1,16}`)

// Header names differing only in case collapse into one lower-cased entry
// holding the last value.
func TestProperty_HeaderNamesCaseInsensitive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("last occurrence wins regardless of case", prop.ForAll(
		func(name, first, second string) bool {
			req, err := ParseLines(linesOf(
				"GET / HTTP/1.1",
				strings.ToUpper(name)+": "+first,
				strings.ToLower(name)+": "+second,
				"",
			))
			if err != nil {
				t.Logf("parse failed: %v", err)
				return false
			}
			return len(req.Header) == 1 &&
				req.Header[strings.ToLower(name)] == second &&
				req.Header.Get(strings.ToUpper(name)) == second
		},
		nameGen,
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("values are kept verbatim after one optional space", prop.ForAll(
		func(name, value string) bool {
			req, err := ParseLines(linesOf("GET / HTTP/1.1", name+":"+value, ""))
			if err != nil {
				return false
			}
			return req.Header.Get(name) == strings.TrimPrefix(value, " ")
		},
		nameGen,
		gen.RegexMatch(`[ a-z:]{0,12}`),
	))

	properties.TestingRun(t)
}

// Well-formed request lines always round-trip.
func TestProperty_RequestLineRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("method target version survive parsing", prop.ForAll(
		func(method, target string, version Version) bool {
			req, err := ParseLines(linesOf(method+" "+target+" "+version.Proto(), ""))
			if err != nil {
				return false
			}
			return req.Method == method && req.Target == target && req.Version == version
		},
		gen.RegexMatch(`[A-Z]{1,8}`),
		gen.RegexMatch(`/[!-~]{0,24}`),
		gen.OneConstOf(Version11, Version2, Version3),
	))

	properties.TestingRun(t)
}
