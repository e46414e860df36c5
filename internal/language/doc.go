// Package language provides unified language code normalization and mapping.
//
// The pipeline speaks ISO 639-3 at its edges (command line, persisted
// metadata, subtitle tags) while several engines expect ISO 639-1. All
// conversions go through this package. Codes outside the local table are
// resolved through the CLDR registry shipped with golang.org/x/text.
package language
