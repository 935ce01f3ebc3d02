package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/venturelens/internal/models"
	"go.uber.org/zap"
)

const (
	nsDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	imageTextPrefix = "[Image text] "
)

// slidePath matches slide parts inside a .pptx zip: ppt/slides/slide12.xml.
var slidePath = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slidePart struct {
	num  int
	file *zip.File
}

// slideItem is one paragraph of text or one embedded picture, in document order.
type slideItem struct {
	text  string
	embed string
}

// extractPPTX walks the slides in numeric order. Each slide starts with a
// "--- Slide N ---" marker followed by one line per text paragraph; embedded pictures
// are OCR'd and their text placed inline where the picture appears.
func (e *Extractor) extractPPTX(ctx context.Context, content []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		e.logger.Warn("pptx is not a zip archive", zap.Error(err))
		return failed([]string{"open PPTX: " + err.Error()})
	}

	files := make(map[string]*zip.File, len(zr.File))
	var slides []slidePart
	for _, f := range zr.File {
		files[f.Name] = f
		if m := slidePath.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slidePart{num: n, file: f})
		}
	}
	if len(slides) == 0 {
		return failed([]string{"PPTX contains no slides"})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var (
		buf       strings.Builder
		warnings  []string
		textLines int
		ocrLines  int
		images    int
	)
	for _, s := range slides {
		items, err := readSlide(s.file)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("slide %d: %v", s.num, err))
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "--- Slide %d ---\n", s.num)

		var rels map[string]string
		for _, it := range items {
			if it.text != "" {
				buf.WriteString(it.text)
				buf.WriteByte('\n')
				textLines++
				continue
			}
			if e.opts.MaxImages > 0 && images >= e.opts.MaxImages {
				continue
			}
			if rels == nil {
				rels = readRels(files, s.num)
			}
			target, ok := rels[it.embed]
			if !ok {
				continue
			}
			media, ok := files[target]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("slide %d: missing image %s", s.num, target))
				continue
			}
			images++
			txt, err := e.ocrEmbedded(ctx, media)
			if err != nil {
				e.logger.Debug("embedded image ocr failed",
					zap.Int("slide", s.num), zap.String("image", target), zap.Error(err))
				warnings = append(warnings, fmt.Sprintf("slide %d: image %s: %v", s.num, path.Base(target), err))
				buf.WriteString(imageTextPrefix + PlaceholderImageFailed + "\n")
				continue
			}
			buf.WriteString(imageTextPrefix + strings.ReplaceAll(txt, "\n", " ") + "\n")
			ocrLines++
		}
	}

	text := strings.TrimSpace(buf.String())
	switch {
	case textLines > 0:
		return Result{Text: text, Method: models.ExtractionExtracted, Warnings: warnings}
	case ocrLines > 0:
		return Result{Text: text, Method: models.ExtractionOCR, Warnings: warnings}
	default:
		return failed(warnings)
	}
}

func (e *Extractor) ocrEmbedded(ctx context.Context, f *zip.File) (string, error) {
	data, err := readZipFile(f)
	if err != nil {
		return "", err
	}
	txt, err := e.ocrImage(ctx, data, NormalizeExt(path.Ext(f.Name)))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("no text recognized")
	}
	return txt, nil
}

// readSlide returns the slide's paragraphs and picture references in document order.
func readSlide(f *zip.File) ([]slideItem, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		items  []slideItem
		para   strings.Builder
		inPara bool
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != nsDrawingML {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "t":
				inText = inPara
			case "br":
				if inPara {
					para.WriteByte(' ')
				}
			case "blip":
				for _, a := range t.Attr {
					if a.Name.Space == nsRelationships && a.Name.Local == "embed" && a.Value != "" {
						items = append(items, slideItem{embed: a.Value})
					}
				}
			}
		case xml.EndElement:
			if t.Name.Space != nsDrawingML {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.Join(strings.Fields(para.String()), " "); line != "" {
					items = append(items, slideItem{text: line})
				}
				inPara = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return items, nil
}

type relationships struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
		Mode   string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

// readRels maps relationship ids of slide num to zip paths. Missing or broken parts
// yield an empty map.
func readRels(files map[string]*zip.File, num int) map[string]string {
	out := map[string]string{}
	f, ok := files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num)]
	if !ok {
		return out
	}
	data, err := readZipFile(f)
	if err != nil {
		return out
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return out
	}
	for _, r := range rels.Rels {
		if r.Mode == "External" {
			continue
		}
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt/slides", target)
		}
		out[r.ID] = target
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
