// Package assets resolves image and attachment references against a base
// directory, enforcing the security constraints on paths, types, and sizes,
// and recording content hashes on the resolved entries.
package assets
