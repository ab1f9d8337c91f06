package texgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docpress/internal/release"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// escape makes arbitrary document text safe for LaTeX body context.
func escape(s string) string {
	return latexEscaper.Replace(s)
}

// renderDocument builds the full .tex source for one release document.
func renderDocument(doc *release.Document) string {
	var b strings.Builder
	b.WriteString("\\documentclass[11pt]{article}\n")
	b.WriteString("\\usepackage[margin=1in]{geometry}\n")
	b.WriteString("\\usepackage{hyperref}\n")
	b.WriteString("\\usepackage{graphicx}\n")
	b.WriteString("\\setlength{\\parskip}{6pt}\n\n")

	fmt.Fprintf(&b, "\\title{%s %s Release Notes}\n", escape(doc.ProductName), escape(doc.Version))
	fmt.Fprintf(&b, "\\date{%s}\n", escape(doc.ReleaseDate))
	b.WriteString("\\begin{document}\n\\maketitle\n\n")

	fmt.Fprintf(&b, "\\section*{Summary}\n%s\n\n", escape(doc.Summary))

	if len(doc.Features) > 0 {
		b.WriteString("\\section*{New Features}\n\\begin{itemize}\n")
		for _, f := range doc.Features {
			fmt.Fprintf(&b, "\\item \\textbf{%s}: %s\n", escape(f.Title), escape(f.Description))
		}
		b.WriteString("\\end{itemize}\n\n")
	}

	if len(doc.Fixes) > 0 {
		b.WriteString("\\section*{Bug Fixes}\n\\begin{itemize}\n")
		for _, f := range doc.Fixes {
			fmt.Fprintf(&b, "\\item \\texttt{%s} %s", escape(f.ID), escape(f.Title))
			if f.Description != "" {
				fmt.Fprintf(&b, " --- %s", escape(f.Description))
			}
			b.WriteString("\n")
		}
		b.WriteString("\\end{itemize}\n\n")
	}

	if len(doc.BreakingChanges) > 0 {
		b.WriteString("\\section*{Breaking Changes}\n")
		for _, bc := range doc.BreakingChanges {
			fmt.Fprintf(&b, "\\subsection*{%s}\n%s\n\n", escape(bc.Title), escape(bc.Description))
			fmt.Fprintf(&b, "\\textbf{Migration:} %s\n\n", escape(bc.Migration))
		}
	}

	renderImages(&b, doc.Images)

	if len(doc.Links) > 0 {
		b.WriteString("\\section*{References}\n\\begin{itemize}\n")
		for _, l := range doc.Links {
			fmt.Fprintf(&b, "\\item \\href{%s}{%s}\n", l.URL, escape(l.Label))
		}
		b.WriteString("\\end{itemize}\n\n")
	}

	renderAppendix(&b, doc.Attachments)

	b.WriteString("\\end{document}\n")
	return b.String()
}

func renderImages(b *strings.Builder, images []release.Image) {
	for _, img := range images {
		if img.ResolvedPath == "" {
			continue
		}
		width := img.WidthPercent
		if width <= 0 || width > 100 {
			width = 80
		}
		b.WriteString("\\begin{center}\n")
		fmt.Fprintf(b, "\\includegraphics[width=%.2f\\linewidth]{%s}\n", float64(width)/100, img.ResolvedPath)
		if img.Caption != "" {
			fmt.Fprintf(b, "\\\\ \\textit{%s}\n", escape(img.Caption))
		}
		b.WriteString("\\end{center}\n\n")
	}
}

// renderAppendix appends appendix-type attachments. Plain-text attachments
// are inlined verbatim; binary attachments are listed by name only.
func renderAppendix(b *strings.Builder, attachments []release.Attachment) {
	var appendix []release.Attachment
	for _, att := range attachments {
		if att.Type == release.AttachmentAppendix && att.ResolvedPath != "" {
			appendix = append(appendix, att)
		}
	}
	if len(appendix) == 0 {
		return
	}

	b.WriteString("\\appendix\n\\section*{Appendix}\n")
	for _, att := range appendix {
		fmt.Fprintf(b, "\\subsection*{%s}\n", escape(att.Label))
		if strings.EqualFold(filepath.Ext(att.ResolvedPath), ".txt") {
			if content, err := os.ReadFile(att.ResolvedPath); err == nil {
				fmt.Fprintf(b, "\\begin{verbatim}\n%s\n\\end{verbatim}\n", strings.TrimRight(string(content), "\n"))
				continue
			}
		}
		fmt.Fprintf(b, "Attached file: \\texttt{%s}\n\n", escape(filepath.Base(att.ResolvedPath)))
	}
}
