// Package texgen renders release documents to PDF locally through LaTeX.
//
// It is the offline alternative to the remote generation engine: the
// document is rendered to a .tex source, appendix attachments are folded
// in, and tectonic compiles the result. No network access is required.
package texgen
