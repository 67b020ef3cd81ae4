// Package extract turns raw conversation transcripts into typed candidate
// facts.
//
// Extraction is deterministic and pattern based: speaker labels become
// people, lines using commitment vocabulary become commitments or next
// actions, and capitalized phrases ending in a corporate suffix become
// organizations. The result favors precision over recall and is meant as
// a fallback for a learned extractor, not a replacement.
//
// Detectors are pluggable. The default set is built from a Config whose
// vocabulary can be replaced at runtime by a rule pack.
package extract
