package combine

import (
	"path/filepath"

	"files2xml/pkg/encode"
	"files2xml/pkg/xmlout"

	"go.uber.org/zap"
)

// Outcome is what happened to a single file.
type Outcome int

const (
	OutcomeWritten      Outcome = iota // element with content
	OutcomeExcluded                    // element, metadata only
	OutcomeFailed                      // element with error marker
	OutcomeTooLarge                    // no element, over the size limit
	OutcomeUnclassified                // no element, classification failed
	OutcomeBadName                     // no element, path cannot be written as an XML attribute
)

// ProcessSingleFile classifies and encodes path and writes its element. Only a failure to
// write to the output is returned as an error.
func (p *Pipeline) ProcessSingleFile(xw *xmlout.Writer, path string) (Outcome, error) {
	if err := encode.CheckXMLText(path); err != nil {
		p.logger.Warn("Skipping file whose path cannot be represented in XML",
			zap.ByteString("path", []byte(path)),
			zap.Error(err))
		return OutcomeBadName, nil
	}
	logger := p.logger.With(zap.String("path", path))

	c, err := p.classifier.Classify(path)
	if err != nil {
		logger.Warn("Skipping file that cannot be classified", zap.Error(err))
		return OutcomeUnclassified, nil
	}
	logger.Debug("Classified file",
		zap.String("name", filepath.Base(path)),
		zap.String("mimeType", c.MimeType),
		zap.Stringer("encoding", c.Encoding),
		zap.Int64("sizeBytes", c.Size))

	result := p.encoder.Encode(path, c)
	if result.Kind == encode.Skipped {
		return OutcomeTooLarge, nil
	}

	entry := xmlout.FileEntry{
		Path:     path,
		MimeType: c.MimeType,
		Size:     c.Size,
		ModTime:  c.ModTime,
	}
	if err := xw.WriteFile(entry, result); err != nil {
		return OutcomeFailed, err
	}
	logger.Info("Added file", zap.Stringer("content", result.Kind))

	switch result.Kind {
	case encode.ExcludedMetadataOnly:
		return OutcomeExcluded, nil
	case encode.Failed:
		return OutcomeFailed, nil
	}
	return OutcomeWritten, nil
}
