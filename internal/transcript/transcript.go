package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Document is the JSON structure the transcription engine produces.
type Document struct {
	JobName string `json:"jobName"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
	Status string `json:"status"`
}

// Decode parses a transcript document.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode transcript document: %w", err)
	}
	return doc, nil
}

// Text returns the first transcript's text, or "" when none is present.
func (d Document) Text() string {
	if len(d.Results.Transcripts) == 0 {
		return ""
	}
	return d.Results.Transcripts[0].Transcript
}

// WordCount counts whitespace-separated words in the transcript text.
func (d Document) WordCount() int {
	return len(strings.Fields(d.Text()))
}

// Preview returns at most n leading characters of the transcript text, for
// logging.
func (d Document) Preview(n int) string {
	text := d.Text()
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
