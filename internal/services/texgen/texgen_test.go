package texgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docpress/internal/release"
	"docpress/internal/services"
	"docpress/internal/services/docgen"
)

func TestEscape(t *testing.T) {
	got := escape("50% of $10 & a #tag with under_score {braces}")
	want := `50\% of \$10 \& a \#tag with under\_score \{braces\}`
	if got != want {
		t.Fatalf("escape = %q, want %q", got, want)
	}
}

func TestRenderDocumentSections(t *testing.T) {
	doc := &release.Document{
		ProductName: "Acme & Co",
		Version:     "1.0.0",
		ReleaseDate: "2026-03-01",
		Summary:     "First release",
		Features:    []release.Feature{{Title: "Dark mode", Description: "New theme"}},
		Fixes:       []release.Fix{{ID: "BUG-1", Title: "Fix crash"}},
		BreakingChanges: []release.BreakingChange{
			{Title: "Old API", Description: "Removed", Migration: "Use v2"},
		},
		Links: []release.Link{{Label: "Changelog", URL: "https://example.com/log"}},
	}

	source := renderDocument(doc)
	for _, want := range []string{
		`\title{Acme \& Co 1.0.0 Release Notes}`,
		`\section*{New Features}`,
		`\textbf{Dark mode}: New theme`,
		`\texttt{BUG-1} Fix crash`,
		`\textbf{Migration:} Use v2`,
		`\href{https://example.com/log}{Changelog}`,
	} {
		if !strings.Contains(source, want) {
			t.Errorf("rendered source missing %q", want)
		}
	}
	if strings.Contains(source, `\appendix`) {
		t.Error("no attachments must mean no appendix")
	}
}

func TestRenderAppendixInlinesText(t *testing.T) {
	dir := t.TempDir()
	notesPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notesPath, []byte("known issues list\n"), 0o644); err != nil {
		t.Fatalf("write attachment: %v", err)
	}

	doc := &release.Document{
		ProductName: "Acme",
		Version:     "1.0.0",
		Summary:     "x",
		Attachments: []release.Attachment{
			{Label: "Known Issues", Path: "notes.txt", Type: release.AttachmentAppendix, ResolvedPath: notesPath},
			{Label: "Skipped", Path: "other.txt", Type: release.AttachmentEmbed, ResolvedPath: notesPath},
		},
	}

	source := renderDocument(doc)
	if !strings.Contains(source, "known issues list") {
		t.Fatal("text attachment content must be inlined")
	}
	if !strings.Contains(source, `\subsection*{Known Issues}`) {
		t.Fatal("appendix subsection missing")
	}
	if strings.Contains(source, `\subsection*{Skipped}`) {
		t.Fatal("non-appendix attachments must be excluded")
	}
}

// stubCompiler writes a fake tectonic that emits main.pdf in its working
// directory.
func stubCompiler(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tectonic")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub compiler: %v", err)
	}
	return path
}

func TestEngineGenerate(t *testing.T) {
	engine := NewEngine(Config{
		TectonicPath: stubCompiler(t, `printf '%%PDF-1.7 stub' > main.pdf`),
	}, nil)

	pdf, err := engine.Generate(context.Background(), docgen.Request{
		Doc: &release.Document{ProductName: "Acme", Version: "1.0.0", Summary: "x"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("pdf = %q", pdf)
	}
}

func TestEngineCompileFailure(t *testing.T) {
	engine := NewEngine(Config{
		TectonicPath: stubCompiler(t, `echo 'undefined control sequence' >&2; exit 1`),
	}, nil)

	_, err := engine.Generate(context.Background(), docgen.Request{
		Doc: &release.Document{ProductName: "Acme", Version: "1.0.0", Summary: "x"},
	})
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("error = %v, want collaborator marker", err)
	}
	var svcErr *services.Error
	if !errors.As(err, &svcErr) || len(svcErr.Detail) == 0 {
		t.Fatalf("error = %v, want compiler output in detail", err)
	}
}

func TestEngineCompileTimeout(t *testing.T) {
	engine := NewEngine(Config{
		TectonicPath:   stubCompiler(t, `sleep 5`),
		CompileTimeout: 50 * time.Millisecond,
	}, nil)

	_, err := engine.Generate(context.Background(), docgen.Request{
		Doc: &release.Document{ProductName: "Acme", Version: "1.0.0", Summary: "x"},
	})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("error = %v, want timeout marker", err)
	}
}
