package extractor

import (
	"fmt"
	"os"

	goword "github.com/VantageDataChat/GoWord"

	"github.com/brinkfield/multicore/internal/domain"
)

// extractDOCX returns the document body text via GoWord. Grounded on
// Vantagics-AskFlow/internal/parser.parseWord, recover-wrapped the same
// way since GoWord's reader is known to panic on malformed OOXML.
func (e *Extractor) extractDOCX(path string) (result domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(domain.ModalityText, fmt.Sprintf("docx parser panic: %v", r))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return failure(domain.ModalityText, fmt.Sprintf("read docx: %v", err))
	}

	doc, err := goword.OpenFromBytes(data)
	if err != nil {
		return failure(domain.ModalityText, fmt.Sprintf("docx open: %v", err))
	}

	text := doc.ExtractText()
	return domain.ExtractionResult{Modality: domain.ModalityText, Text: text}
}
