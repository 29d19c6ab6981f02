package pipeline

import (
	"fmt"
	"strings"
)

// supportedFormats is the user-facing list enumerated in unsupported-type
// errors.
var supportedFormats = []string{
	"xlsx", "xls", "csv", "txt", "md", "pdf", "png", "jpeg", "webp",
}

// UnsupportedMediaTypeError is returned when extraction has no handler for
// the declared media type. Fatal to the pipeline invocation.
type UnsupportedMediaTypeError struct {
	MediaType string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported media type %q: supported formats are %s", e.MediaType, strings.Join(supportedFormats, ", "))
}

// UnsupportedDocumentFormatError flags document types that need external
// conversion before they can be processed. The pipeline refuses them
// explicitly instead of attempting a lossy parse.
type UnsupportedDocumentFormatError struct {
	MediaType string
}

func (e *UnsupportedDocumentFormatError) Error() string {
	return fmt.Sprintf("document format %q requires conversion: please convert the document to PDF or an image and try again", e.MediaType)
}
