// Package nacc converts REDCap clinical record exports into NACC
// fixed-width packets.
//
// Each input record is one study visit. A run targets exactly one
// protocol (UDS initial visit, follow-up, telephone follow-up,
// neuropathology, milestone, or a disease-specific module) and every
// record goes through the same pipeline:
//
//   - Route: the record's event name and completion flag must match the
//     protocol. Records that do not match are skipped silently.
//   - Build: the protocol's forms are populated from the record through
//     cached parse chains and stamped with the visit header. Optional
//     forms are built only when their presence flag is set.
//   - Normalize: zero-fill, re-blank, or nothing, depending on the
//     protocol.
//   - Validate: blanking rules and the forbidden character scan. Any
//     warning discards the whole record. Single-select groups are
//     checked for base protocols but only advise.
//   - Emit: every form is rendered before anything is written.
//
// Protocols, blanking rule sets and the normalization and exclusivity
// tables are declarative data embedded under catalog/ and loaded once
// into an immutable [Catalog].
//
// Field sources use a small binding grammar, e.g.
//
//	source: "a2sub,omitempty fu_a2sub,omitempty"
//
// Bindings are tried in order. `omitempty` falls through to the next
// binding when the column is absent; `required` (implied when no modifier
// is given) fails the record with [ErrMissingField].
package nacc
