package lexicon

// Merge combines a previous partial entry with a newly arrived partial
// entry. Scalar fields are replaced when the incoming entry sets them.
// Sequence fields are replaced only when the incoming sequence is
// non-empty: the generator legitimately omits sequences in early
// emissions, and a last-write-wins merge would transiently erase
// content already shown to the user.
//
// The merge is idempotent: Merge(a, a) == a.
func Merge(previous, incoming Entry) Entry {
	merged := previous

	if incoming.Word != "" {
		merged.Word = incoming.Word
	}
	if incoming.Language != "" {
		merged.Language = incoming.Language
	}
	if incoming.Phonetic != "" {
		merged.Phonetic = incoming.Phonetic
	}
	if incoming.Etymology != "" {
		merged.Etymology = incoming.Etymology
	}
	if len(incoming.Senses) > 0 {
		merged.Senses = incoming.Senses
	}
	if len(incoming.Examples) > 0 {
		merged.Examples = incoming.Examples
	}
	if len(incoming.Synonyms) > 0 {
		merged.Synonyms = incoming.Synonyms
	}
	return merged
}

// MergeInto merges into a possibly-nil previous entry, allocating when
// needed. Returns the merged entry.
func MergeInto(previous *Entry, incoming Entry) *Entry {
	if previous == nil {
		merged := Merge(Entry{}, incoming)
		return &merged
	}
	merged := Merge(*previous, incoming)
	return &merged
}
