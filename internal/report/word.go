package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/hanlin-tw/mileage-report/backend/internal/domain"
	"github.com/hanlin-tw/mileage-report/backend/internal/mapstore"
)

// failureMarker is written into the document where a map image would
// normally appear but could not be produced.
const failureMarker = "本筆地圖截圖失敗"

// titleSize is the w:sz half-point value for 18pt.
const titleSize = "36"

// WordAssembler builds per-project mileage reports. Map images are read
// back from the store by the reference recorded on each resolution.
type WordAssembler struct {
	store mapstore.Store
}

func NewWordAssembler(store mapstore.Store) *WordAssembler {
	return &WordAssembler{store: store}
}

// BuildProjectReport renders one project's trips as a .docx: one titled
// section per trip in the group's order, with the route map inline.
// Trips that failed resolution still get a section, carrying the failure
// marker instead of a map, so the reader can see what is missing.
func (w *WordAssembler) BuildProjectReport(ctx context.Context, project string, trips []domain.ResolvedTrip) ([]byte, error) {
	if len(trips) == 0 {
		return nil, fmt.Errorf("report.BuildProjectReport: project %q: %w: no trips", project, domain.ErrAssembly)
	}

	doc := docx.New().WithDefaultTheme()

	for i, t := range trips {
		if i > 0 {
			doc.AddParagraph().AddPageBreaks()
		}
		if err := w.appendTrip(ctx, doc, t); err != nil {
			return nil, fmt.Errorf("report.BuildProjectReport: project %q: %w", project, err)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("report.BuildProjectReport: project %q: %w: %v", project, domain.ErrAssembly, err)
	}
	return buf.Bytes(), nil
}

func (w *WordAssembler) appendTrip(ctx context.Context, doc *docx.Docx, t domain.ResolvedTrip) error {
	title := doc.AddParagraph()
	title.AddText(tripTitle(t)).Size(titleSize).Bold()

	res := t.Result.Success
	if res == nil {
		marker := failureMarker
		if f := t.Result.Failure; f != nil && f.Message != "" {
			marker = "本筆計算失敗：" + f.Message
		}
		doc.AddParagraph().AddText(marker).Size(titleSize)
		return nil
	}

	img, err := w.mapImage(ctx, res.MapImageRef)
	if err != nil || len(img) == 0 {
		doc.AddParagraph().AddText(failureMarker).Size(titleSize)
		return nil
	}

	p := doc.AddParagraph()
	if _, err := p.AddInlineDrawing(img); err != nil {
		doc.AddParagraph().AddText(failureMarker).Size(titleSize)
	}
	return nil
}

func (w *WordAssembler) mapImage(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, nil
	}
	rc, err := w.store.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// tripTitle renders the section heading, e.g.
// "10/22 安環高雄處至經濟部產業園區管理局往返,核銷25.4公里。"
func tripTitle(t domain.ResolvedTrip) string {
	date := ""
	if !t.Record.StartTime.IsZero() {
		date = fmt.Sprintf("%d/%d ", int(t.Record.StartTime.Month()), t.Record.StartTime.Day())
	}

	origin := t.Record.Origin
	dest := t.Record.Destination
	if res := t.Result.Success; res != nil {
		return fmt.Sprintf("%s%s至%s往返,核銷%s公里。", date, origin, dest, formatKm(res.RoundTripKm))
	}
	return fmt.Sprintf("%s%s至%s往返", date, origin, dest)
}

// formatKm drops a trailing zero fraction: 25.0 renders as "25",
// 25.40 as "25.4".
func formatKm(km float64) string {
	s := strconv.FormatFloat(km, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
