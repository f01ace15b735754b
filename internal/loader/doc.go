// Package loader extracts plain text from files for ingestion.
//
// Plain text and Markdown files (.txt, .text, .md) are read as-is; PDF
// files (.pdf) go through text extraction. Anything else is rejected with
// ErrUnsupportedType, and files over MaxFileSize with ErrFileTooLarge.
//
//	text, err := loader.Load("manuals/setup.pdf")
//	if errors.Is(err, loader.ErrUnsupportedType) {
//		// tell the caller which extensions work: loader.SupportedExtensions()
//	}
//
// Markdown is deliberately not parsed: headings, lists, and code fences are
// useful retrieval signal, so the raw text is chunked as written.
package loader
