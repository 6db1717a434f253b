package briefing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDF layout in points on A4 paper.
const (
	pdfFontSize   = 10
	pdfLeftMargin = 50
	pdfTopY       = 800
	pdfLineStep   = 14
	pdfLinesPage  = 54
	pdfMaxCols    = 95
)

// pdfDoc mirrors pdfcpu's JSON create schema.
type pdfDoc struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfText struct {
	Value    string  `json:"value"`
	Position [2]int  `json:"position"`
	Font     pdfFont `json:"font"`
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// writePDF renders the briefing text onto A4 pages via pdfcpu's declarative
// create API.
func writePDF(path string, text string) error {
	doc := pdfDoc{
		Paper:  "A4",
		Origin: "lowerLeft",
		Pages:  map[string]pdfPage{},
	}

	lines := wrapLines(text, pdfMaxCols)
	page := 1
	y := pdfTopY
	var content pdfContent
	flush := func() {
		if len(content.Text) == 0 {
			return
		}
		doc.Pages[fmt.Sprintf("%d", page)] = pdfPage{Content: content}
		content = pdfContent{}
		page++
		y = pdfTopY
	}

	for i, line := range lines {
		if line != "" {
			content.Text = append(content.Text, pdfText{
				Value:    line,
				Position: [2]int{pdfLeftMargin, y},
				Font:     pdfFont{Name: "Courier", Size: pdfFontSize},
			})
		}
		y -= pdfLineStep
		if (i+1)%pdfLinesPage == 0 {
			flush()
		}
	}
	flush()

	if len(doc.Pages) == 0 {
		doc.Pages["1"] = pdfPage{Content: pdfContent{Text: []pdfText{{
			Value:    "(empty briefing)",
			Position: [2]int{pdfLeftMargin, pdfTopY},
			Font:     pdfFont{Name: "Courier", Size: pdfFontSize},
		}}}}
	}

	layout, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal pdf layout: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	defer f.Close()

	if err := api.Create(nil, bytes.NewReader(layout), f, nil); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// wrapLines splits text into lines no wider than max columns, breaking on
// spaces where possible.
func wrapLines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for len(line) > max {
			cut := strings.LastIndex(line[:max], " ")
			if cut <= 0 {
				cut = max
			}
			out = append(out, strings.TrimRight(line[:cut], " "))
			line = strings.TrimLeft(line[cut:], " ")
		}
		out = append(out, line)
	}
	return out
}
