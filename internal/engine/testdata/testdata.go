// Package testdata provides a small embedded training corpus for engine and
// facade tests.
package testdata

import (
	"bufio"
	_ "embed"
	"io"
	"strings"
)

//go:embed weather.data
var weatherData string

// WeatherOptions is an option string suited to the weather corpus.
const WeatherOptions = "-k 1 -w 2 -d Z -F Columns"

// Weather returns the play-tennis training set: four whitespace separated
// symbolic features (outlook, temperature, humidity, wind) and a yes/no class.
func Weather() io.Reader {
	return strings.NewReader(weatherData)
}

// WeatherEntry is one labeled record of the weather corpus.
type WeatherEntry struct {
	Features string // the four feature values, space separated
	Class    string
}

// WeatherEntries parses the embedded corpus, skipping comments.
func WeatherEntries() []WeatherEntry {
	var entries []WeatherEntry
	sc := bufio.NewScanner(strings.NewReader(weatherData))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.LastIndexByte(line, ' ')
		entries = append(entries, WeatherEntry{Features: line[:i], Class: line[i+1:]})
	}
	return entries
}
