// Command docpress turns release-notes JSON into finished, watermarked,
// optionally password-protected PDFs, and can verify and diff the results.
package main
