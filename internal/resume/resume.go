// Package resume accepts the candidate's resume document and reduces it to the
// reference label passed to the interviewer.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const mimePDF = "application/pdf"

// MaxSize bounds an accepted resume document.
const MaxSize = 10 << 20

var (
	ErrUnsupportedType = errors.New("unsupported resume type: pdf expected")
	ErrUnreadable      = errors.New("resume is not a readable pdf document")
	ErrTooLarge        = errors.New("resume exceeds maximum size")
)

// UserMessage maps an intake error to the warning shown to the candidate.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return "Please upload a PDF file."
	case errors.Is(err, ErrUnreadable):
		return "The resume could not be read as a PDF document."
	case errors.Is(err, ErrTooLarge):
		return "The resume is too large (10 MB maximum)."
	default:
		return "The resume could not be opened."
	}
}

// Label is the placeholder the interviewer receives instead of document text.
func Label(name string) string {
	return fmt.Sprintf("[Content of resume: %s]", name)
}

// Skip is the resume value used when the candidate has no resume.
func Skip() string {
	return ""
}

type Intake struct {
	logger *zap.Logger
}

func NewIntake(logger *zap.Logger) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{logger: logger}
}

// FromFile accepts a resume picked from the local file system.
func (i *Intake) FromFile(path string) (string, error) {
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("open resume %q: %w", path, err)
	}
	if info.Size() > MaxSize {
		return "", ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume %q: %w", path, err)
	}

	return i.FromBytes(filepath.Base(path), data)
}

// FromBytes accepts an uploaded or dropped resume document.
func (i *Intake) FromBytes(name string, data []byte) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !detected.Is(mimePDF) {
		i.logger.Warn("rejecting resume",
			zap.String("name", name),
			zap.String("mime", detected.String()),
		)
		return "", ErrUnsupportedType
	}

	pages, err := countPages(data)
	if err != nil {
		i.logger.Warn("rejecting unreadable resume", zap.String("name", name), zap.Error(err))
		return "", ErrUnreadable
	}
	if pages == 0 {
		i.logger.Warn("rejecting empty resume", zap.String("name", name))
		return "", ErrUnreadable
	}

	i.logger.Debug("resume accepted", zap.String("name", name), zap.Int("pages", pages))

	return Label(name), nil
}

func countPages(data []byte) (pages int, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
