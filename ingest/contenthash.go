package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/opencite/litgraph/model"
)

// ComputeContentHash derives a Paper's content-addressed identity,
// deterministic over its normalized title, normalized abstract, ordered
// author names, and sorted categories. The store saves it on the paper as
// contentHash; duplicate detection and the store's upsert key (the paper
// ID) do not use it.
func ComputeContentHash(p model.Paper) string {
	categories := append([]string(nil), p.Categories...)
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString(normalizeTitle(p.Title))
	b.WriteByte('\n')
	b.WriteString(normalizeTitle(p.Abstract))
	b.WriteByte('\n')
	b.WriteString(strings.Join(p.AuthorNames(), "|"))
	b.WriteByte('\n')
	b.WriteString(strings.Join(categories, "|"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
