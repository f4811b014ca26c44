package qtatom

import (
	"fmt"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// Kind tags which of the three atom variants a value is (spec §9: replace
// the teacher's runtime class registry / duck-typed access with a tagged
// sum type).
type Kind int

const (
	// KindContainer atoms hold a sequence of child atoms as their payload.
	KindContainer Kind = iota
	// KindLeaf atoms hold structured fields decoded via a schema.
	KindLeaf
	// KindGobble atoms are unrecognized FourCCs retained as opaque bytes.
	KindGobble
)

// Atom is one node of the parsed tree: a length-prefixed, four-byte-tag
// record (spec §3). Kind selects whether Children (container) or Leaf
// (leaf) is populated; Payload holds the raw bytes for every kind.
type Atom struct {
	Type     string
	Offset   int64 // absolute offset of the 8-byte header within the source buffer
	Size     int64 // inclusive of the 8-byte header
	Kind     Kind
	Children []*Atom // populated when Kind == KindContainer
	Leaf     any     // populated when Kind == KindLeaf; concrete type per schema.go
	Payload  []byte  // raw bytes after the header, always populated
}

func (a *Atom) String() string {
	return fmt.Sprintf("[%s] @ %d (size %d)", a.Type, a.Offset, a.Size)
}

// ChildSchema describes how to interpret one FourCC within a given
// container's child list.
type ChildSchema struct {
	Container bool
	Children  ChildMap                   // used when Container is true
	Decode    func(payload []byte) (any, error) // used when Container is false; nil means "leave as raw payload with no typed Leaf value"
}

// ChildMap is the per-container registry of known child FourCCs (spec
// §4.C: "a map M: FourCC -> LeafSchema | ContainerSchema"). A FourCC
// absent from the map yields a Gobble atom.
type ChildMap map[string]ChildSchema

// UnknownFourCCs is the run-wide observability set of FourCCs seen that
// had no registered schema (spec §4.C, §7: "not errors ... recorded in an
// unknown_fourccs set for diagnostics").
type UnknownFourCCs struct {
	seen map[string]struct{}
}

// NewUnknownFourCCs constructs an empty tracking set.
func NewUnknownFourCCs() *UnknownFourCCs {
	return &UnknownFourCCs{seen: map[string]struct{}{}}
}

func (u *UnknownFourCCs) record(fourcc string) {
	if u == nil {
		return
	}
	u.seen[fourcc] = struct{}{}
}

// List returns the observed unknown FourCCs, unordered.
func (u *UnknownFourCCs) List() []string {
	if u == nil {
		return nil
	}
	out := make([]string, 0, len(u.seen))
	for k := range u.seen {
		out = append(out, k)
	}
	return out
}

// ParseRoot parses buf as a top-level QuickTime container (spec §4.C:
// "The top-level parse is itself a container over the full file").
func ParseRoot(buf []byte, unknown *UnknownFourCCs) (*Atom, error) {
	children, err := parseChildren(buf, 0, int64(len(buf)), "QuickTime", rootSchema, unknown)
	if err != nil {
		return nil, err
	}
	return &Atom{
		Type:     "QuickTime",
		Offset:   0,
		Size:     int64(len(buf)),
		Kind:     KindContainer,
		Children: children,
		Payload:  buf,
	}, nil
}

// ParseChildren parses a standalone run of sibling atoms not wrapped in a
// synthetic size-prefixed header of their own — used for panorama sample
// payloads, which are literally a sequence of child atoms (pHdr, pHot,
// strT, pLnk, ...) with no enclosing box.
func ParseChildren(buf []byte, baseOffset int64, containerType string, schema ChildMap, unknown *UnknownFourCCs) ([]*Atom, error) {
	return parseChildren(buf, baseOffset, baseOffset+int64(len(buf)), containerType, schema, unknown)
}

// parseChildren is the recursive-descent core (spec §4.C algorithm).
func parseChildren(src []byte, start, end int64, containerType string, schema ChildMap, unknown *UnknownFourCCs) ([]*Atom, error) {
	var atoms []*Atom
	c := start

	for c < end {
		rel := c - start

		// §4.C step 6: udta's historical sentinel — four zero bytes
		// terminate the child list instead of being parsed as a
		// size-0 atom (which would otherwise be malformed). This is
		// checked before the 8-byte header requirement below since the
		// sentinel is commonly the last 4 bytes of udta's payload, with
		// nothing required to follow it.
		if containerType == "udta" && end-c >= 4 && beU32(src[rel:rel+4]) == 0 {
			break
		}

		if end-c < 8 {
			return nil, qerr.New(qerr.KindMalformedAtom, "", c, "fewer than 8 bytes remain for atom header")
		}
		header := src[rel : rel+8]
		size := int64(beU32(header[0:4]))
		typ := string(header[4:8])

		if size < 8 || c+size > end {
			return nil, qerr.New(qerr.KindMalformedAtom, typ, c, fmt.Sprintf("size %d invalid at offset %d (container end %d)", size, c, end))
		}

		payloadRel := rel + 8
		payloadLen := size - 8
		payload := src[payloadRel : payloadRel+payloadLen]

		def, known := schema[typ]
		atom := &Atom{Type: typ, Offset: c, Size: size, Payload: payload}

		if !known {
			unknown.record(typ)
			atom.Kind = KindGobble
			atoms = append(atoms, atom)
			c += size
			continue
		}

		if def.Container {
			childStart := c + 8
			children, err := parseChildren(payload, childStart, childStart+payloadLen, typ, def.Children, unknown)
			if err != nil {
				return nil, err
			}
			atom.Kind = KindContainer
			atom.Children = children
		} else {
			atom.Kind = KindLeaf
			if def.Decode != nil {
				leaf, err := def.Decode(payload)
				if err != nil {
					return nil, qerr.Wrap(qerr.KindMalformedAtom, typ, c, "leaf decode failed", err)
				}
				atom.Leaf = leaf
			}
		}

		atoms = append(atoms, atom)
		c += size
	}

	return atoms, nil
}

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
