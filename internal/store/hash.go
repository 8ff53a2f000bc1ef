package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Signature is the semantic identity of a declaration as far as the index
// is concerned. Positions do not contribute.
type Signature struct {
	Kind           string
	Name           string
	Modifiers      []string
	TypeParameters []string
	Parameters     []string
	Result         string
	Members        []string
}

// ComputeSignatureHash computes a deterministic hash of sig.
// Modifiers and members are order-independent; parameters are not.
func ComputeSignatureHash(sig Signature) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", sig.Name)
	fmt.Fprintf(h, "kind:%s\n", sig.Kind)
	fmt.Fprintf(h, "modifiers:%s\n", strings.Join(sorted(sig.Modifiers), ","))

	for i, tp := range sig.TypeParameters {
		fmt.Fprintf(h, "typeparam:%d:%s\n", i, tp)
	}
	for i, p := range sig.Parameters {
		fmt.Fprintf(h, "param:%d:%s\n", i, p)
	}
	fmt.Fprintf(h, "result:%s\n", sig.Result)
	for _, m := range sorted(sig.Members) {
		fmt.Fprintf(h, "member:%s\n", m)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

func sorted(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
