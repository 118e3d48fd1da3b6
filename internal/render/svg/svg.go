// Package svg writes export documents as standalone SVG files.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"

	svgo "github.com/ajstarks/svgo"

	"github.com/samirrijal/mapart/internal/core/domain"
)

const (
	// ContentType of the rendered document.
	ContentType = "image/svg+xml"

	boundaryStyle = "fill:none;stroke:black;stroke-width:2"
	streetStyle   = "fill:none;stroke:black;stroke-width:2"
	labelFontSize = 12
)

// Render writes doc to w. The boundary is a closed stroked path; each street
// is a stroked path with a label that follows it.
func Render(w io.Writer, doc domain.ExportDocument, title string) error {
	ew := &errWriter{w: w}
	width := int(math.Round(doc.Canvas.Width))
	height := int(math.Round(doc.Canvas.Height))

	canvas := svgo.New(ew)
	canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))
	if title != "" {
		canvas.Title(title)
	}
	canvas.Path(doc.BoundaryPath, `id="boundary"`, boundaryStyle)

	for i, st := range doc.Streets {
		id := fmt.Sprintf("street-%d", i)
		canvas.Group(`class="street"`)
		canvas.Path(st.Path(), fmt.Sprintf(`id=%q`, id), streetStyle)
		// svgo's Textpath neither escapes the label nor takes an offset.
		fmt.Fprintf(canvas.Writer,
			`<text font-size="%d" text-anchor="middle"><textPath xlink:href="#%s" href="#%s" startOffset="50%%">%s</textPath></text>`+"\n",
			labelFontSize, id, id, escape(st.Name))
		canvas.Gend()
	}

	canvas.End()
	return ew.err
}

// Bytes renders doc into memory.
func Bytes(doc domain.ExportDocument, title string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc, title); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
