// Package report renders slot assignments for output.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/auxindex/internal/auxpow"
	"github.com/cory-johannsen/auxindex/internal/chain"
)

// Record is one chain's slot in structured output.
// Branch is the serialized aux merkle branch, present only with a merge.
type Record struct {
	ChainID int32  `json:"chain_id" yaml:"chain_id"`
	Name    string `json:"name" yaml:"name"`
	Index   uint32 `json:"index" yaml:"index"`
	Branch  string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// MergeDocument is the structured output when block hashes were supplied.
type MergeDocument struct {
	Commitment string   `json:"commitment" yaml:"commitment"`
	Slots      []Record `json:"slots" yaml:"slots"`
}

// Records converts a into records in insertion order, labelled from reg.
// When m is non-nil each record carries its chain's branch.
func Records(a auxpow.Assignment, reg *chain.Registry, m *auxpow.Merge) []Record {
	entries := a.Entries()
	out := make([]Record, 0, len(entries))
	for _, s := range entries {
		r := Record{ChainID: s.ChainID, Name: reg.Name(s.ChainID), Index: s.Index}
		if m != nil {
			if p, ok := m.Proof(s.ChainID); ok {
				r.Branch = p.Branch.Hex()
			}
		}
		out = append(out, r)
	}
	return out
}

// Write renders a to w in format: "repr", "json" or "yaml".
// reg may be nil; it is ignored by "repr". m may be nil; when set, json and
// yaml emit a MergeDocument and repr appends the commitment line followed by
// one "chain_id branch" line per chain.
//
// Postcondition: Output ends with a newline, or an error is returned.
func Write(w io.Writer, format string, a auxpow.Assignment, reg *chain.Registry, m *auxpow.Merge) error {
	var doc any = Records(a, reg, m)
	if m != nil {
		doc = MergeDocument{Commitment: m.Commitment.Hex(), Slots: Records(a, reg, m)}
	}

	switch format {
	case "repr":
		return writeRepr(w, a, m)
	case "json":
		return json.NewEncoder(w).Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeRepr(w io.Writer, a auxpow.Assignment, m *auxpow.Merge) error {
	if _, err := fmt.Fprintln(w, a.String()); err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, m.Commitment.Hex()); err != nil {
		return err
	}
	for _, p := range m.Proofs {
		if _, err := fmt.Fprintf(w, "%d %s\n", p.ChainID, p.Branch.Hex()); err != nil {
			return err
		}
	}
	return nil
}
