package pdfio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	pdflib "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Service downloads PDF documents, extracts their plain text and splits the
// text into overlapping segments.
type Service struct {
	httpClient *http.Client
	splitter   Splitter
}

func NewService(downloadTimeout time.Duration, chunkSize, chunkOverlap int) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: downloadTimeout},
		splitter:   Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap},
	}
}

// Download fetches the raw document bytes. The HTTP client carries a bounded
// request timeout; a non-2xx status is an error.
func (s *Service) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download pdf: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf body: %w", err)
	}

	return raw, nil
}

// ExtractText parses the PDF and concatenates the plain text of all pages.
// Pages that fail to render are skipped.
func (s *Service) ExtractText(raw []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Error("failed to extract page text", zap.Int("page", i), zap.Error(err))
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String()), nil
}

// Split segments the extracted text with the configured size and overlap.
func (s *Service) Split(text string) []string {
	return s.splitter.Split(text)
}
