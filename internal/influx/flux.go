package influx

import (
	"fmt"
	"strings"
	"time"
)

// escapeFlux makes a value safe inside a Flux string literal.
func escapeFlux(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// fieldFilter builds the _field disjunction for a series query.
func fieldFilter(fields []string) string {
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, fmt.Sprintf(`r._field == "%s"`, escapeFlux(f)))
	}
	return strings.Join(terms, " or ")
}

// latestFlux returns the last value of every field written for the device
// within the window.
func latestFlux(bucket, device string, window time.Duration) string {
	return fmt.Sprintf(`from(bucket: "%s")
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == "scooter")
  |> filter(fn: (r) => r.device_id == "%s")
  |> last()`,
		escapeFlux(bucket), window, escapeFlux(device))
}

// seriesFlux returns every sample of the requested fields within the window,
// merged into one table ordered by time.
func seriesFlux(bucket, device string, window time.Duration, fields []string) string {
	return fmt.Sprintf(`from(bucket: "%s")
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == "scooter")
  |> filter(fn: (r) => r.device_id == "%s")
  |> filter(fn: (r) => %s)
  |> group()
  |> sort(columns: ["_time"])`,
		escapeFlux(bucket), window, escapeFlux(device), fieldFilter(fields))
}
