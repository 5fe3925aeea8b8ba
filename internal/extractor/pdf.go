package extractor

import (
	"fmt"
	"os"
	"strings"

	gopdf "github.com/VantageDataChat/GoPDF2"

	"github.com/brinkfield/multicore/internal/domain"
)

// extractPDF reads the text layer only; OCR on scanned PDFs is out of
// scope. A missing or empty text layer yields an empty string and the
// caller handles it — it is not an extractor error. Grounded on
// Vantagics-AskFlow/internal/parser.parsePDF, including its
// panic-recover wrapping around the third-party parser.
func (e *Extractor) extractPDF(path string) (result domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(domain.ModalityText, fmt.Sprintf("pdf parser panic: %v", r))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return failure(domain.ModalityText, fmt.Sprintf("read pdf: %v", err))
	}

	pageCount, err := gopdf.GetSourcePDFPageCountFromBytes(data)
	if err != nil {
		return failure(domain.ModalityText, fmt.Sprintf("pdf page count: %v", err))
	}

	renderCount := pageCount
	if e.MaxPDFPagesRender > 0 && renderCount > e.MaxPDFPagesRender {
		renderCount = e.MaxPDFPagesRender
	}

	var sb strings.Builder
	pagesWithText := 0
	for i := 0; i < renderCount; i++ {
		text, pageErr := gopdf.ExtractPageText(data, i)
		if pageErr != nil || text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
		pagesWithText++
	}

	return domain.ExtractionResult{
		Modality: domain.ModalityText,
		Text:     sb.String(),
		Diagnostics: map[string]any{
			"page_count":      pageCount,
			"pages_with_text": pagesWithText,
		},
	}
}
