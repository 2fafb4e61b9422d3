package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`      _        _                 _                _   `, "#818cf8"},
	{`  ___| |_ __ _| |_ ___  ___| |__   __ _ _ __| |_ `, "#a78bfa"},
	{` / __| __/ _' | __/ _ \/ __| '_ \ / _' | '__| __|`, "#c084fc"},
	{` \__ \ || (_| | ||  __/ (__| | | | (_| | |  | |_ `, "#e879f9"},
	{` |___/\__\__,_|\__\___|\___|_| |_|\__,_|_|   \__|`, "#f472b6"},
}

// PrintBanner outputs the statechart banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w)
}
