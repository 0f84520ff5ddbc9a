package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"agentic-context/internal/logger"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textEncoding decodes raw bytes or reports that they are not in this encoding.
type textEncoding struct {
	name   string
	decode func([]byte) (string, error)
}

// DocumentLoader turns uploaded bytes into plain text.
type DocumentLoader struct {
	encodings []textEncoding
}

// NewDocumentLoader builds a loader that tries the named text encodings in order.
func NewDocumentLoader(encodingNames []string) (*DocumentLoader, error) {
	if len(encodingNames) == 0 {
		return nil, errors.New("at least one text encoding is required")
	}
	encs := make([]textEncoding, 0, len(encodingNames))
	for _, name := range encodingNames {
		enc, err := lookupEncoding(name)
		if err != nil {
			return nil, err
		}
		encs = append(encs, enc)
	}
	return &DocumentLoader{encodings: encs}, nil
}

// Load extracts text for a file with the given lower-case extension.
func (l *DocumentLoader) Load(ext string, content []byte) (string, error) {
	switch ext {
	case ".pdf":
		return ExtractPDFText(content)
	case ".txt":
		return l.DecodeText(content)
	default:
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}
}

// DecodeText walks the encoding ladder and returns the first clean decode.
func (l *DocumentLoader) DecodeText(content []byte) (string, error) {
	tried := make([]string, 0, len(l.encodings))
	for _, enc := range l.encodings {
		text, err := enc.decode(content)
		if err == nil {
			return text, nil
		}
		logger.Debug("text decode attempt failed",
			zap.String("encoding", enc.name),
			zap.Error(err),
		)
		tried = append(tried, enc.name)
	}
	return "", fmt.Errorf("unable to decode text file with any of: %s", strings.Join(tried, ", "))
}

func lookupEncoding(name string) (textEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return textEncoding{name: "utf-8", decode: decodeUTF8}, nil
	case "utf-16", "utf16":
		// A BOM is required; it also selects the byte order.
		return textEncoding{name: "utf-16", decode: decoderFor(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM))}, nil
	case "utf-16le":
		return textEncoding{name: "utf-16le", decode: decoderFor(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))}, nil
	case "utf-16be":
		return textEncoding{name: "utf-16be", decode: decoderFor(unicode.UTF16(unicode.BigEndian, unicode.UseBOM))}, nil
	case "windows-1252", "cp1252":
		return textEncoding{name: "windows-1252", decode: decoderFor(charmap.Windows1252)}, nil
	case "latin-1", "latin1", "iso-8859-1":
		return textEncoding{name: "iso-8859-1", decode: decoderFor(charmap.ISO8859_1)}, nil
	default:
		return textEncoding{}, fmt.Errorf("unsupported text encoding %q", name)
	}
}

func decodeUTF8(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return "", errors.New("invalid utf-8 byte sequence")
	}
	return string(content), nil
}

// decoderFor rejects output with replacement characters, which x/text
// emits instead of failing on malformed input.
func decoderFor(enc encoding.Encoding) func([]byte) (string, error) {
	return func(content []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(content)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", errors.New("malformed input for encoding")
		}
		return string(out), nil
	}
}

// ExtractPDFText returns the plain text of every page joined by a single space.
func ExtractPDFText(content []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	pages := reader.NumPage()
	texts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from PDF page", zap.Int("page", i), zap.Error(err))
			continue
		}
		texts = append(texts, pageText)
	}

	return strings.Join(texts, " "), nil
}
