// Package docgen turns a validated release document into a base PDF.
//
// Generation is pluggable: a Generator renders the document through one
// engine, and a Registry maps configured engine names to generators. The
// default engine posts the document values and a base64-encoded layout
// template to the remote document-generation API; the alternative LaTeX
// engine lives in the texgen package.
package docgen
